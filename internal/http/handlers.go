package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/roelfdiedericks/voicegate/internal/pipeline"
)

const audioMediaType = "application/octet-stream"

// writeJSONError writes {"error": msg} with the given status.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		L_debug("http: failed to write error body", "error", err)
	}
}

// writeText writes a plain text body with the given status.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

// handleVoiceInput handles POST /voice_input: raw PCM in, raw PCM out.
func (s *Server) handleVoiceInput(w http.ResponseWriter, r *http.Request) {
	id := RequestID(r.Context())

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != audioMediaType {
		L_warn("http: voice_input - unsupported media type", "request", id, "contentType", r.Header.Get("Content-Type"))
		writeJSONError(w, http.StatusUnsupportedMediaType, "Unsupported media type")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			L_warn("http: voice_input - payload too large", "request", id, "limit", tooLarge.Limit)
			writeJSONError(w, http.StatusRequestEntityTooLarge, "Audio payload too large")
			return
		}
		L_warn("http: voice_input - failed to read body", "request", id, "error", err)
		writeJSONError(w, http.StatusBadRequest, "No audio data received")
		return
	}
	if len(body) == 0 {
		L_warn("http: voice_input - empty body", "request", id)
		writeJSONError(w, http.StatusBadRequest, "No audio data received")
		return
	}

	L_info("http: voice_input received", "request", id, "bytes", len(body))
	res := s.runner.Run(r.Context(), id, body)

	switch res.State {
	case pipeline.Done:
		w.Header().Set("Content-Type", audioMediaType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Audio)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(res.Audio); err != nil {
			L_warn("http: voice_input - client went away", "request", id, "error", err)
		}
	case pipeline.STTFailed:
		writeText(w, http.StatusInternalServerError, pipeline.ErrSTTFailed.Error())
	case pipeline.TTSFailed:
		writeText(w, http.StatusInternalServerError, pipeline.ErrTTSFailed.Error())
	default:
		L_error("http: voice_input - pipeline ended in unexpected state", "request", id, "state", res.State)
		writeText(w, http.StatusInternalServerError, "INTERNAL_ERROR")
	}
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
		Providers
	}{"ok", s.providers})
}
