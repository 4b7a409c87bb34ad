// Command voicegate runs the voice-assistant gateway: raw PCM in,
// transcription, a short completion, synthesized PCM out.
package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/roelfdiedericks/voicegate/internal/config"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config string `help:"Config file (default: ./voicegate.* then ~/.voicegate/voicegate.*)" short:"c" type:"path"`
	Debug  bool   `help:"Enable debug logging" short:"d"`
	Trace  bool   `help:"Enable trace logging"`
}

// CLI is the command tree.
type CLI struct {
	Globals

	Serve      ServeCmd      `cmd:"" default:"withargs" help:"Run the HTTP gateway (default)"`
	Version    VersionCmd    `cmd:"" help:"Print version"`
	Models     ModelsCmd     `cmd:"" help:"Manage whisper.cpp models"`
	Transcribe TranscribeCmd `cmd:"" help:"Transcribe an audio file with the configured STT provider"`
	Say        SayCmd        `cmd:"" help:"Synthesize text to 16 kHz mono PCM"`
	Ask        AskCmd        `cmd:"" help:"Run a PCM recording through the full pipeline"`
	Conf       ConfCmd       `cmd:"" name:"config" help:"Manage the config file"`
}

// loadConfig loads the config and applies its logging section, with the
// command-line level flags taking precedence.
func (g *Globals) loadConfig() (*config.LoadResult, error) {
	result, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	g.applyLogging(result.Config.Logging)
	if result.Path != "" {
		L_debug("config: using file", "path", result.Path)
	}
	return result, nil
}

func (g *Globals) applyLogging(lc config.LoggingConfig) {
	logCfg, err := lc.ToLogConfig()
	if err != nil {
		logCfg = DefaultLogConfig()
	}
	switch {
	case g.Trace:
		logCfg.Level = LevelTrace
	case g.Debug:
		logCfg.Level = LevelDebug
	}
	if logCfg.Level >= LevelDebug {
		logCfg.ShowCaller = true
	}
	Init(logCfg)
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Printf("voicegate %s\n", version)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("voicegate"),
		kong.Description("Voice assistant gateway: PCM in, spoken reply out."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	Init(DefaultLogConfig())
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
