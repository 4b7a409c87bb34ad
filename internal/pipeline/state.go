package pipeline

// State is the position of one run in the pipeline.
type State int

const (
	Idle State = iota
	Transcribing
	Completing
	Synthesizing
	Done
	STTFailed
	TTSFailed
)

var stateNames = [...]string{
	Idle:         "idle",
	Transcribing: "transcribing",
	Completing:   "completing",
	Synthesizing: "synthesizing",
	Done:         "done",
	STTFailed:    "stt_failed",
	TTSFailed:    "tts_failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Done || s == STTFailed || s == TTSFailed
}
