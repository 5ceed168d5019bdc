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
	maxChunkSize     = 8000
	maxIterations    = 10
	condenseMaxToken = 500
)

var condenserLog = logger.Get("Condenser")

// TranscriptCondenser shrinks transcripts that would not fit the quiz prompt
// by summarising them chunk by chunk until they are under Threshold chars.
type TranscriptCondenser struct {
	client    ChatClient
	model     string
	Threshold int
	detector  *LanguageDetector
}

func NewTranscriptCondenser(client ChatClient, model string, threshold int, detector *LanguageDetector) *TranscriptCondenser {
	if model == "" {
		model = DefaultQuizModel
	}
	return &TranscriptCondenser{
		client:    client,
		model:     model,
		Threshold: threshold,
		detector:  detector,
	}
}

// Condense returns text unchanged when it is already short enough or the
// condenser is disabled (Threshold <= 0).
func (c *TranscriptCondenser) Condense(ctx context.Context, text string) (string, error) {
	if c == nil || c.Threshold <= 0 {
		return text, nil
	}
	return c.condenseRecursive(ctx, text, 0)
}

func (c *TranscriptCondenser) condenseRecursive(ctx context.Context, text string, iteration int) (string, error) {
	if len(text) <= c.Threshold || iteration >= maxIterations {
		return text, nil
	}

	condenserLog.Emit(logger.INFO, "Condense iteration %d: input length %d characters\n", iteration, len(text))

	language := DefaultQuizLanguage
	if detected, ok := c.detector.Detect(text); ok {
		language = detected
	}

	chunks := splitTextIntoChunks(text, maxChunkSize)
	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := c.summarizeChunk(ctx, chunk, language)
		if err != nil {
			return "", fmt.Errorf("error summarizing chunk %d: %w", i, err)
		}
		summaries = append(summaries, summary)
	}

	combined := strings.Join(summaries, " ")
	condenserLog.Emit(logger.INFO, "Condense iteration %d: output length %d characters\n", iteration, len(combined))

	// A pass that does not shrink the text would loop until maxIterations.
	if len(combined) >= len(text) {
		return combined, nil
	}

	return c.condenseRecursive(ctx, combined, iteration+1)
}

func (c *TranscriptCondenser) summarizeChunk(ctx context.Context, chunk, language string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You are a helpful assistant that summarizes lecture transcripts concisely while keeping every fact a student could be quizzed on. Always respond in %s.", language),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Summarize the following text in %s, maintaining key information and context:\n\n%s", language, chunk),
			},
		},
		MaxTokens:   condenseMaxToken,
		Temperature: greedyTemperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("error creating chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// splitTextIntoChunks splits on word boundaries into roughly chunkSize-char pieces.
func splitTextIntoChunks(text string, chunkSize int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	chunkCount := math.Ceil(float64(len(text)) / float64(chunkSize))
	wordsPerChunk := int(math.Ceil(float64(len(words)) / chunkCount))
	if wordsPerChunk < 1 {
		wordsPerChunk = 1
	}

	var chunks []string
	for i := 0; i < len(words); i += wordsPerChunk {
		end := i + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}

	return chunks
}
