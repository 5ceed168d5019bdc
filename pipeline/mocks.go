package pipeline

import (
	"context"
)

type MockMediaFetcher struct {
	FetchFunc func(ctx context.Context, url, destDir string) (string, error)
}

func (m *MockMediaFetcher) Fetch(ctx context.Context, url, destDir string) (string, error) {
	return m.FetchFunc(ctx, url, destDir)
}

type MockTranscoder struct {
	ConvertFunc func(ctx context.Context, inputPath, outputPath string) error
}

func (m *MockTranscoder) Convert(ctx context.Context, inputPath, outputPath string) error {
	return m.ConvertFunc(ctx, inputPath, outputPath)
}

type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string) (string, error)
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return m.TranscribeFunc(ctx, audioPath)
}

type MockQuestionGenerator struct {
	GenerateQuestionsFunc func(ctx context.Context, transcript string, count int) (string, error)
}

func (m *MockQuestionGenerator) GenerateQuestions(ctx context.Context, transcript string, count int) (string, error) {
	return m.GenerateQuestionsFunc(ctx, transcript, count)
}

type MockCommandRunner struct {
	RunFunc func(ctx context.Context, name string, args ...string) (CommandResult, error)
}

func (m *MockCommandRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	if m.RunFunc == nil {
		return CommandResult{}, nil
	}
	return m.RunFunc(ctx, name, args...)
}
