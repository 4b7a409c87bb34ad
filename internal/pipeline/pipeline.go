// Package pipeline runs one voice request through transcription,
// completion and synthesis.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/roelfdiedericks/voicegate/internal/llm"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/roelfdiedericks/voicegate/internal/metrics"
)

var (
	ErrSTTFailed = errors.New("STT_FAILED")
	ErrTTSFailed = errors.New("TTS_FAILED")
)

// Transcriber turns raw PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, requestID string, pcm []byte) (string, error)
}

// Responder answers a transcript. It never fails.
type Responder interface {
	Respond(ctx context.Context, transcript string) llm.Reply
}

// Speaker turns reply text into raw PCM.
type Speaker interface {
	Speak(ctx context.Context, requestID, reply string) ([]byte, error)
}

// Result is the outcome of one run.
type Result struct {
	State      State
	Transcript string
	Reply      string
	Fallback   bool // Reply is fallback text
	Audio      []byte
	Err        error // wraps ErrSTTFailed or ErrTTSFailed on failure
}

type stage struct {
	state   State
	slots   *semaphore.Weighted
	timeout time.Duration
}

// Pipeline is safe for concurrent use; each Run is independent.
type Pipeline struct {
	stt     Transcriber
	llm     Responder
	tts     Speaker
	metrics *metrics.Metrics

	transcribing stage
	completing   stage
	synthesizing stage
}

// New creates a pipeline. m may be nil.
func New(stt Transcriber, llm Responder, tts Speaker, cfg Config, m *metrics.Metrics) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		stt:          stt,
		llm:          llm,
		tts:          tts,
		metrics:      m,
		transcribing: stage{Transcribing, semaphore.NewWeighted(int64(cfg.STTSlots)), seconds(cfg.STTTimeoutSeconds)},
		completing:   stage{Completing, semaphore.NewWeighted(int64(cfg.LLMSlots)), seconds(cfg.LLMTimeoutSeconds)},
		synthesizing: stage{Synthesizing, semaphore.NewWeighted(int64(cfg.TTSSlots)), seconds(cfg.TTSTimeoutSeconds)},
	}, nil
}

// Run takes pcm from Idle to a terminal state. The run is detached from
// ctx cancellation: a client hanging up does not abort the stages, but
// values such as the request ID carried by ctx are kept.
func (p *Pipeline) Run(ctx context.Context, requestID string, pcm []byte) Result {
	ctx = context.WithoutCancel(ctx)
	defer p.metrics.RunStarted()()
	start := time.Now()

	res := Result{State: Idle}
	p.metrics.ObserveInput(len(pcm))

	p.transition(requestID, &res, Transcribing)
	err := p.runStage(ctx, requestID, &p.transcribing, func(ctx context.Context) error {
		text, err := p.stt.Transcribe(ctx, requestID, pcm)
		res.Transcript = text
		return err
	})
	if err != nil || res.Transcript == "" {
		if err == nil {
			err = errors.New("empty transcript")
		}
		L_error("pipeline: transcription failed", "request", requestID, "error", err)
		res.Transcript = ""
		res.Err = fmt.Errorf("%w: %v", ErrSTTFailed, err)
		return p.finish(requestID, &res, STTFailed, start)
	}
	L_info("pipeline: transcript", "request", requestID, "text", res.Transcript)

	p.transition(requestID, &res, Completing)
	err = p.runStage(ctx, requestID, &p.completing, func(ctx context.Context) error {
		reply := p.llm.Respond(ctx, res.Transcript)
		res.Reply, res.Fallback = reply.Text, reply.Fallback
		if reply.Fallback {
			p.metrics.CompletionFallback(string(reply.Reason))
		}
		return nil
	})
	if err != nil {
		L_error("pipeline: completion skipped", "request", requestID, "error", err)
		res.Reply, res.Fallback = llm.FallbackUnreachable, true
		p.metrics.CompletionFallback("slot_timeout")
	}
	L_info("pipeline: reply", "request", requestID, "fallback", res.Fallback, "text", res.Reply)

	p.transition(requestID, &res, Synthesizing)
	err = p.runStage(ctx, requestID, &p.synthesizing, func(ctx context.Context) error {
		pcm, err := p.tts.Speak(ctx, requestID, res.Reply)
		res.Audio = pcm
		return err
	})
	if err != nil || len(res.Audio) == 0 {
		if err == nil {
			err = errors.New("no audio")
		}
		L_error("pipeline: synthesis failed", "request", requestID, "error", err)
		res.Audio = nil
		res.Err = fmt.Errorf("%w: %v", ErrTTSFailed, err)
		return p.finish(requestID, &res, TTSFailed, start)
	}

	p.metrics.ObserveOutput(len(res.Audio))
	return p.finish(requestID, &res, Done, start)
}

// runStage acquires a slot and runs fn under the stage timeout. Failing to
// get a slot before the timeout is the stage's failure.
func (p *Pipeline) runStage(ctx context.Context, requestID string, st *stage, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, st.timeout)
	defer cancel()

	waitStart := time.Now()
	if err := st.slots.Acquire(ctx, 1); err != nil {
		p.metrics.ObserveStage(st.state.String(), false, time.Since(waitStart))
		return fmt.Errorf("%s: no free slot: %w", st.state, err)
	}
	defer st.slots.Release(1)

	wait := time.Since(waitStart)
	p.metrics.ObserveSlotWait(st.state.String(), wait)
	if wait > time.Second {
		L_debug("pipeline: waited for slot", "request", requestID, "stage", st.state, "wait", wait)
	}

	start := time.Now()
	err := fn(ctx)
	p.metrics.ObserveStage(st.state.String(), err == nil, time.Since(start))
	return err
}

func (p *Pipeline) transition(requestID string, res *Result, next State) {
	L_debug("pipeline: state", "request", requestID, "from", res.State, "to", next)
	res.State = next
}

func (p *Pipeline) finish(requestID string, res *Result, final State, start time.Time) Result {
	p.transition(requestID, res, final)
	p.metrics.RunFinished(final.String())
	L_elapsed(start, "pipeline: finished", "request", requestID, "state", final, "bytes", len(res.Audio))
	return *res
}
