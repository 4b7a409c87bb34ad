package http

import (
	"fmt"
	"net"
	"time"
)

// Config holds configuration for the HTTP server.
type Config struct {
	Listen              string `json:"listen"`              // Address to listen on (e.g., "0.0.0.0:5002")
	MaxBodyBytes        int64  `json:"maxBodyBytes"`        // Largest accepted audio payload
	ReadTimeoutSeconds  int    `json:"readTimeoutSeconds"`  // Time allowed to receive a request
	WriteTimeoutSeconds int    `json:"writeTimeoutSeconds"` // Covers the whole pipeline run
}

// DefaultConfig returns the server settings used when the config file leaves them out.
func DefaultConfig() Config {
	return Config{
		Listen:              "0.0.0.0:5002",
		MaxBodyBytes:        10 << 20,
		ReadTimeoutSeconds:  30,
		WriteTimeoutSeconds: 120,
	}
}

// Validate checks the listen address and limits.
func (c Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("http.listen %q: %w", c.Listen, err)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.maxBodyBytes must be positive")
	}
	if c.ReadTimeoutSeconds <= 0 || c.WriteTimeoutSeconds <= 0 {
		return fmt.Errorf("http timeouts must be positive")
	}
	return nil
}

func (c Config) readTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c Config) writeTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}
