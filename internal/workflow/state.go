package workflow

import (
	"time"

	"github.com/google/uuid"
)

// State is the phase of the recording workflow. Exactly one State is
// authoritative at any instant; transitions are atomic from the outside.
type State int

const (
	// StateIdle means no cycle is active.
	StateIdle State = iota
	// StateRecording means audio capture is running for a held key.
	StateRecording
	// StateTranscribing means the engine is running over captured audio.
	StateTranscribing
	// StateInjecting means recognized text is being typed out.
	StateInjecting
	// StateFailed means the last cycle ended in an error; it clears on the
	// next key press or after a display interval.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	case StateInjecting:
		return "injecting"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// FailureKind classifies why a cycle failed. Subsystem errors never cross
// the workflow boundary in any other form.
type FailureKind string

const (
	// FailureNone means no failure.
	FailureNone FailureKind = ""
	// FailurePermission means an OS hook could not be installed. Sticky:
	// retrying without the permission is pointless.
	FailurePermission FailureKind = "permission_unavailable"
	// FailureDevice means the input device was missing or disappeared.
	FailureDevice FailureKind = "device_failure"
	// FailureEngineNotFound means the engine binary or model is missing.
	// Sticky until the next key press.
	FailureEngineNotFound FailureKind = "engine_not_found"
	// FailureTimeout means the engine exceeded its ceiling and was killed.
	FailureTimeout FailureKind = "timeout"
	// FailureProcess means the engine exited non-zero.
	FailureProcess FailureKind = "process_failed"
	// FailureEmptyOutput means the engine recognized nothing.
	FailureEmptyOutput FailureKind = "empty_output"
	// FailureInjection means typing failed; the text is still in history.
	FailureInjection FailureKind = "injection_failed"
)

// Snapshot is an immutable view of the workflow published on every
// transition.
type Snapshot struct {
	State     State
	Session   uuid.UUID
	StartedAt time.Time
	// Text is the recognized text while injecting.
	Text string
	// Failure and Reason are set while failed.
	Failure FailureKind
	Reason  string
}
