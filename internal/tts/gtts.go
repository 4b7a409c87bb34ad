package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

const (
	// DefaultGTTSURL is the speech endpoint of Google Translate.
	DefaultGTTSURL = "https://translate.google.com/translate_tts"

	// maxChunkLen is the longest text the endpoint accepts per request.
	maxChunkLen = 100

	gttsUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// GTTS synthesizes MP3 speech through the Google Translate endpoint.
type GTTS struct {
	baseURL string
	client  *http.Client
}

// NewGTTS creates a synthesizer. An empty baseURL selects DefaultGTTSURL.
func NewGTTS(baseURL string, timeout time.Duration) *GTTS {
	if baseURL == "" {
		baseURL = DefaultGTTSURL
	}
	return &GTTS{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

// Name returns the provider name.
func (g *GTTS) Name() string { return "gtts" }

// Synthesize fetches one MP3 per text chunk and concatenates them; MP3
// frames are self-delimiting so the result decodes as a single stream.
func (g *GTTS) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	chunks := splitChunks(text, maxChunkLen)
	if len(chunks) == 0 {
		return nil, ErrNothingToSay
	}

	var out bytes.Buffer
	for i, chunk := range chunks {
		part, err := g.fetch(ctx, chunk, lang, i, len(chunks))
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		out.Write(part)
	}

	L_debug("tts: gtts synthesized", "chunks", len(chunks), "bytes", out.Len())
	return out.Bytes(), nil
}

func (g *GTTS) fetch(ctx context.Context, chunk, lang string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", chunk)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", gttsUserAgent)
	req.Header.Set("Referer", "https://translate.google.com/")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtts: status %d", resp.StatusCode)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("gtts: empty audio")
	}
	if mt := mimetype.Detect(data); !mt.Is("audio/mpeg") {
		return nil, fmt.Errorf("gtts: unexpected response type %s", mt.String())
	}
	return data, nil
}

// splitChunks packs words into chunks of at most max runes. A single word
// longer than max is cut at rune boundaries.
func splitChunks(text string, max int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > max {
			flush()
			chunks = append(chunks, string(runes[:max]))
			runes = runes[max:]
		}
		if len(runes) == 0 {
			continue
		}
		need := len(runes)
		if curLen > 0 {
			need++
		}
		if curLen+need > max {
			flush()
			need = len(runes)
		}
		if curLen > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(string(runes))
		curLen += need
	}
	flush()
	return chunks
}
