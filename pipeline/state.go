package pipeline

import (
	"fmt"

	"github.com/google/uuid"
)

// JobState tracks which stage a job is in.
type JobState string

const (
	StateCreated      JobState = "created"
	StateDownloading  JobState = "downloading"
	StateConverting   JobState = "converting"
	StateTranscribing JobState = "transcribing"
	StateGenerating   JobState = "generating"
	StateDone         JobState = "done"
	StateFailed       JobState = "failed"
)

// Job is the identity and lifecycle of one pipeline run.
type Job struct {
	ID      uuid.UUID
	State   JobState
	History []JobState
}

func NewJob() *Job {
	return &Job{
		ID:      uuid.New(),
		State:   StateCreated,
		History: []JobState{StateCreated},
	}
}

// Transition applies to, rejecting edges the state machine does not allow.
func (j *Job) Transition(to JobState) error {
	if !isValidTransition(j.State, to) {
		return fmt.Errorf("invalid transition: %s -> %s", j.State, to)
	}

	j.State = to
	j.History = append(j.History, to)
	return nil
}

func (j *Job) Terminal() bool {
	return j.State == StateDone || j.State == StateFailed
}

func isValidTransition(from, to JobState) bool {
	if to == StateFailed {
		return from != StateDone && from != StateFailed
	}

	switch from {
	case StateCreated:
		return to == StateDownloading
	case StateDownloading:
		return to == StateConverting
	case StateConverting:
		return to == StateTranscribing
	case StateTranscribing:
		return to == StateGenerating
	case StateGenerating:
		return to == StateDone
	default:
		return false
	}
}
