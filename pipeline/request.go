package pipeline

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinQuestions     = 3
	MaxQuestions     = 15
	DefaultQuestions = 5
)

var validate = validator.New()

// JobRequest is one user invocation of the pipeline.
type JobRequest struct {
	URL           string `json:"url" xml:"URL" validate:"required,url"`
	QuestionCount int    `json:"question_count" xml:"QuestionCount" validate:"min=3,max=15"`
}

// NewJobRequest normalizes the URL and clamps the question count into range.
func NewJobRequest(url string, questionCount int) JobRequest {
	return JobRequest{
		URL:           NormalizeURL(url),
		QuestionCount: ClampQuestionCount(questionCount),
	}
}

// NormalizeURL trims raw and adds https:// when it has no scheme, so links
// pasted as "youtu.be/<id>" are accepted the way yt-dlp accepts them.
func NormalizeURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" || strings.Contains(url, "://") {
		return url
	}
	return "https://" + url
}

func ClampQuestionCount(n int) int {
	if n < MinQuestions {
		return MinQuestions
	}
	if n > MaxQuestions {
		return MaxQuestions
	}
	return n
}

// Validate rejects requests that must not enter the pipeline.
func (r JobRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return newStageError(StageRequest, fmt.Sprintf("invalid request for url %q", r.URL), err)
	}
	return nil
}
