package invoices

import "errors"

var (
	ErrNotFound     = errors.New("invoice not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Step names the pipeline stage a failure came from.
type Step string

const (
	StepUpload Step = "upload"
	StepCreate Step = "create"
	StepParse  Step = "parse"
	StepUpdate Step = "update"
)

// StepError is a pipeline failure. Message is the client-facing text.
type StepError struct {
	Step    Step
	Message string
	Err     error
}

func (e *StepError) Error() string {
	return e.Message
}

func (e *StepError) Unwrap() error {
	return e.Err
}
