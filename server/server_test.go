package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/HugeFrog24/gpt-video-quiz/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	requests []pipeline.JobRequest
	result   pipeline.JobResult
	err      error
}

func (p *fakeProcessor) Run(ctx context.Context, req pipeline.JobRequest) (pipeline.JobResult, error) {
	p.requests = append(p.requests, req)
	return p.result, p.err
}

func healthy() (pipeline.DependencyReport, error) {
	return pipeline.DependencyReport{YtDlpFound: true, FFmpegFound: true}, nil
}

func postQuiz(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quiz", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestCreateQuizSuccess(t *testing.T) {
	processor := &fakeProcessor{result: pipeline.JobResult{Transcript: "texto", Quiz: "1. Pergunta?"}}
	s := New(processor, healthy)

	rec := postQuiz(t, s, `{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ","question_count":7}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "texto", body["transcript"])
	assert.Equal(t, "1. Pergunta?", body["quiz"])
	_, hasError := body["error"]
	assert.False(t, hasError)

	require.Len(t, processor.requests, 1)
	assert.Equal(t, 7, processor.requests[0].QuestionCount)
}

func TestCreateQuizDefaultsQuestionCount(t *testing.T) {
	processor := &fakeProcessor{result: pipeline.JobResult{Quiz: "q"}}
	s := New(processor, healthy)

	rec := postQuiz(t, s, `{"url":"https://vimeo.com/76979871"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.DefaultQuestions, processor.requests[0].QuestionCount)
}

func TestCreateQuizRejectsBadInput(t *testing.T) {
	for name, body := range map[string]string{
		"malformed json": `{"url":`,
		"missing url":    `{"question_count":5}`,
		"not a url":      `{"url":"hello world"}`,
		"too many":       `{"url":"https://vimeo.com/1","question_count":40}`,
	} {
		t.Run(name, func(t *testing.T) {
			processor := &fakeProcessor{}
			rec := postQuiz(t, New(processor, healthy), body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, processor.requests)
		})
	}
}

func TestCreateQuizAcceptsURLWithoutScheme(t *testing.T) {
	processor := &fakeProcessor{result: pipeline.JobResult{Quiz: "q"}}

	rec := postQuiz(t, New(processor, healthy), `{"url":"youtu.be/dQw4w9WgXcQ"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", processor.requests[0].URL)
}

func TestCreateQuizJobFailure(t *testing.T) {
	processor := &fakeProcessor{
		result: pipeline.JobResult{Transcript: "Erro: media acquisition failed", ErrorMessage: "Erro: media acquisition failed"},
		err:    pipeline.ErrAcquisition,
	}

	rec := postQuiz(t, New(processor, healthy), `{"url":"https://vimeo.com/1"}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Erro: media acquisition failed", body["error"])
	assert.Empty(t, body["quiz"])
}

func TestCreateQuizInvalidRequestFromPipeline(t *testing.T) {
	processor := &fakeProcessor{
		result: pipeline.JobResult{ErrorMessage: "Erro: invalid request"},
		err:    pipeline.ErrInvalidRequest,
	}

	rec := postQuiz(t, New(processor, healthy), `{"url":"https://vimeo.com/1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	New(&fakeProcessor{}, healthy).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"yt_dlp_found":true`)

	unhealthy := func() (pipeline.DependencyReport, error) {
		return pipeline.DependencyReport{}, errors.New("missing dependency: ffmpeg is not installed or not on PATH")
	}
	rec = httptest.NewRecorder()
	New(&fakeProcessor{}, unhealthy).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "ffmpeg")
}
