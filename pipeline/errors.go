package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names the pipeline step a failure belongs to.
type Stage string

const (
	StageRequest       Stage = "request"
	StageAcquisition   Stage = "acquisition"
	StageNormalization Stage = "normalization"
	StageTranscription Stage = "transcription"
	StageGeneration    Stage = "generation"
)

var (
	ErrInvalidRequest = errors.New("invalid job request")
	ErrAcquisition    = errors.New("media acquisition failed")
	ErrNormalization  = errors.New("audio conversion failed")
	ErrTranscription  = errors.New("transcription failed")
	ErrGeneration     = errors.New("question generation failed")
)

var stageSentinels = map[Stage]error{
	StageRequest:       ErrInvalidRequest,
	StageAcquisition:   ErrAcquisition,
	StageNormalization: ErrNormalization,
	StageTranscription: ErrTranscription,
	StageGeneration:    ErrGeneration,
}

// StageError is the failure of one pipeline stage. It matches the stage's
// sentinel with errors.Is and unwraps to the underlying cause.
type StageError struct {
	Stage   Stage
	Message string
	Command []string
	Err     error
}

func newStageError(stage Stage, message string, err error) *StageError {
	return &StageError{Stage: stage, Message: message, Err: err}
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Message
	if msg == "" {
		if sentinel, ok := stageSentinels[e.Stage]; ok {
			msg = sentinel.Error()
		}
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Command) > 0 {
		msg = fmt.Sprintf("%s (cmd=%s)", msg, e.Command[0])
	}

	return msg
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *StageError) Is(target error) bool {
	if e == nil {
		return false
	}
	return stageSentinels[e.Stage] == target
}

// StageOf reports which stage produced err, if any.
func StageOf(err error) (Stage, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}

// tail keeps the last n bytes of noisy tool output for error messages.
func tail(output string, n int) string {
	output = strings.TrimSpace(output)
	if len(output) <= n {
		return output
	}
	return "..." + output[len(output)-n:]
}
