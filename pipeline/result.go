package pipeline

import "encoding/xml"

// JobResult is the terminal output of one job. On failure the transcript slot
// carries the error message and the quiz is always empty.
type JobResult struct {
	XMLName      xml.Name `json:"-" xml:"JobResult"`
	Transcript   string   `json:"transcript" xml:"Transcript"`
	Quiz         string   `json:"quiz" xml:"Quiz"`
	ErrorMessage string   `json:"error,omitempty" xml:"Error,omitempty"`
}

func successResult(transcript, quiz string) JobResult {
	return JobResult{Transcript: transcript, Quiz: quiz}
}

func failureResult(message string) JobResult {
	return JobResult{Transcript: message, ErrorMessage: message}
}

func (r JobResult) Failed() bool {
	return r.ErrorMessage != ""
}
