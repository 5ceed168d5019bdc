package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampQuestionCount(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, MinQuestions},
		{0, MinQuestions},
		{3, 3},
		{7, 7},
		{15, 15},
		{16, MaxQuestions},
		{1000, MaxQuestions},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampQuestionCount(tt.in), "clamp(%d)", tt.in)
	}
}

func TestJobRequestValidate(t *testing.T) {
	assert.NoError(t, NewJobRequest("  "+sampleURL+"\n", 5).Validate())
	assert.NoError(t, NewJobRequest("https://vimeo.com/76979871", 15).Validate())

	for _, raw := range []string{"", "   ", "not a url", "youtube.com watch"} {
		err := NewJobRequest(raw, 5).Validate()
		assert.ErrorIs(t, err, ErrInvalidRequest, "url %q", raw)
	}

	// Unclamped counts are only possible by building the struct directly.
	assert.ErrorIs(t, JobRequest{URL: sampleURL, QuestionCount: 2}.Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, JobRequest{URL: sampleURL, QuestionCount: 16}.Validate(), ErrInvalidRequest)
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "", NormalizeURL("  "))
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", NormalizeURL(" youtu.be/dQw4w9WgXcQ "))
	assert.Equal(t, "http://example.com/v.mp4", NormalizeURL("http://example.com/v.mp4"))

	assert.NoError(t, NewJobRequest("youtu.be/dQw4w9WgXcQ", 5).Validate())
	assert.NoError(t, NewJobRequest("www.tiktok.com/@user/video/7234567890123456789", 5).Validate())
}

func TestNewJobRequestTrimsURL(t *testing.T) {
	req := NewJobRequest("\t"+sampleURL+" ", 40)
	assert.Equal(t, sampleURL, req.URL)
	assert.Equal(t, MaxQuestions, req.QuestionCount)
}
