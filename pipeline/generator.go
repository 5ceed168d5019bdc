package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/HugeFrog24/gpt-video-quiz/logger"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultQuizModel     = openai.GPT4oMini
	DefaultQuizLanguage  = "Portuguese"
	DefaultQuizMaxTokens = 512
	DefaultQuizSeed      = 42
	autoLanguage         = "auto"
)

// go-openai omits a zero temperature from the request body, which lets the
// API fall back to its sampling default.
const greedyTemperature = math.SmallestNonzeroFloat32

var generatorLog = logger.Get("Generator")

var answerMarkers = map[string]string{
	"portuguese": "Resposta",
	"spanish":    "Respuesta",
	"french":     "Réponse",
	"german":     "Antwort",
	"italian":    "Risposta",
	"english":    "Answer",
}

// ChatClient is the part of *openai.Client the generator and condenser use.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type GeneratorOptions struct {
	Model     string
	MaxTokens int
	Seed      int
	// Language the questions are written in, or "auto" to follow the transcript.
	Language  string
	Detector  *LanguageDetector
	Condenser *TranscriptCondenser
}

// ChatQuestionGenerator asks a chat model for a multiple-choice quiz and
// returns its answer untouched.
type ChatQuestionGenerator struct {
	client ChatClient
	opts   GeneratorOptions
}

func NewChatQuestionGenerator(client ChatClient, opts GeneratorOptions) *ChatQuestionGenerator {
	if opts.Model == "" {
		opts.Model = DefaultQuizModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultQuizMaxTokens
	}
	if strings.TrimSpace(opts.Language) == "" {
		opts.Language = DefaultQuizLanguage
	}
	return &ChatQuestionGenerator{client: client, opts: opts}
}

func (g *ChatQuestionGenerator) GenerateQuestions(ctx context.Context, transcript string, count int) (string, error) {
	if count <= 0 {
		return "", newStageError(StageGeneration, fmt.Sprintf("question count must be positive, got %d", count), nil)
	}

	text := transcript
	if g.opts.Condenser != nil {
		condensed, err := g.opts.Condenser.Condense(ctx, transcript)
		if err != nil {
			return "", newStageError(StageGeneration, "failed to condense transcript", err)
		}
		text = condensed
	}

	language := g.resolveLanguage(transcript)
	req := g.buildRequest(buildQuizPrompt(text, count, language))

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", newStageError(StageGeneration, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", newStageError(StageGeneration, "model returned no completion", nil)
	}

	return resp.Choices[0].Message.Content, nil
}

func (g *ChatQuestionGenerator) buildRequest(prompt string) openai.ChatCompletionRequest {
	seed := g.opts.Seed
	return openai.ChatCompletionRequest{
		Model: g.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You write study quizzes for students from video transcripts. Follow the requested format exactly.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   g.opts.MaxTokens,
		Temperature: greedyTemperature,
		Seed:        &seed,
		N:           1,
	}
}

func (g *ChatQuestionGenerator) resolveLanguage(transcript string) string {
	if !strings.EqualFold(strings.TrimSpace(g.opts.Language), autoLanguage) {
		return g.opts.Language
	}
	if language, ok := g.opts.Detector.Detect(transcript); ok {
		generatorLog.Emit(logger.DEBUG, "Writing quiz in detected language %s\n", language)
		return language
	}
	return DefaultQuizLanguage
}

func buildQuizPrompt(text string, count int, language string) string {
	return fmt.Sprintf(
		"Generate %d multiple-choice questions (A-D) in %s from the text below. "+
			"Give four options labelled A, B, C and D for each question, "+
			"and mark the correct answer at the end of each question with '%s: <letter>'.\n\n"+
			"Text:\n%s",
		count, language, answerMarker(language), text,
	)
}

func answerMarker(language string) string {
	if marker, ok := answerMarkers[strings.ToLower(strings.TrimSpace(language))]; ok {
		return marker
	}
	return answerMarkers["english"]
}
