package clip

import "errors"

// Error taxonomy used across pipeline steps. Callers match with errors.Is.
var (
	// ErrInvalidRequest marks a clip request rejected before any step ran.
	ErrInvalidRequest = errors.New("invalid clip request")
	// ErrTransient marks a retryable network or upstream failure.
	ErrTransient = errors.New("transient upstream failure")
	// ErrFormat marks a model response that does not follow the required two-line layout.
	ErrFormat = errors.New("response format invalid")
	// ErrBlocked marks a completion refused by the provider's safety filter.
	ErrBlocked = errors.New("response blocked by provider")
	// ErrPublishFailed is fatal: nothing downstream is meaningful without a snapshot.
	ErrPublishFailed = errors.New("publish failed")
	// ErrSummarizeFailed is returned when summarization fails with degradation disabled.
	ErrSummarizeFailed = errors.New("summarize failed")
	// ErrRecordFailed is returned when the note store fails with degradation disabled.
	ErrRecordFailed = errors.New("record note failed")
)
