package reconcile

import "time"

// Action is one change (or confirmed non-change) applied to the destination.
type Action string

const (
	// ActionMatch: destination file already matches a source file by name
	// and content.
	ActionMatch Action = "match"
	// ActionRename: destination file renamed to a source name.
	ActionRename Action = "rename"
	// ActionRemove: destination file has no counterpart and was removed.
	ActionRemove Action = "remove"
	// ActionCopy: source file copied into the destination.
	ActionCopy Action = "copy"
)

// Metrics receives observations from a Synchronizer.
//
// Implementations must be cheap; they are called inline for every file.
type Metrics interface {
	// RecordAction counts one applied action.
	RecordAction(action Action)

	// RecordBytesCopied counts bytes streamed into the destination.
	RecordBytesCopied(bytes int64)

	// ObservePhase records how long one phase took.
	// phase is "index", "separate", "resolve" or "copy".
	ObservePhase(phase string, duration time.Duration)

	// ObserveSync records one complete run.
	ObserveSync(duration time.Duration, err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordAction(Action)                {}
func (noopMetrics) RecordBytesCopied(int64)            {}
func (noopMetrics) ObservePhase(string, time.Duration) {}
func (noopMetrics) ObserveSync(time.Duration, error)   {}

// NewNoopMetrics returns a Metrics implementation that discards everything.
func NewNoopMetrics() Metrics {
	return noopMetrics{}
}
