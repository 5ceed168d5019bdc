package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/HugeFrog24/gpt-video-quiz/logger"
	openai "github.com/sashabaranov/go-openai"
)

// MaxWhisperUploadBytes is the largest file the hosted Whisper endpoint accepts.
const MaxWhisperUploadBytes = 25 << 20

// DefaultChunkDuration keeps a 16 kHz mono chunk at about 19 MB.
const DefaultChunkDuration = 10 * time.Minute

var transcriberLog = logger.Get("Transcriber")

// WhisperClient is the part of *openai.Client the transcriber uses.
type WhisperClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// WhisperTranscriber sends normalized audio to an OpenAI-compatible Whisper
// endpoint. The client is built once by the host and reused for every job.
// Audio above the upload limit is cut into ChunkDuration pieces with ffmpeg,
// next to the source file, and the chunk transcripts are joined.
type WhisperTranscriber struct {
	FFmpegPath    string
	ChunkDuration time.Duration
	client        WhisperClient
	model         string
	language      string
	detector      *LanguageDetector
	runner        CommandRunner
}

func NewWhisperTranscriber(client WhisperClient, model, language string, detector *LanguageDetector) *WhisperTranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{
		FFmpegPath:    "ffmpeg",
		ChunkDuration: DefaultChunkDuration,
		client:        client,
		model:         model,
		language:      normalizeLanguageHint(language),
		detector:      detector,
		runner:        ExecRunner{},
	}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", newStageError(StageTranscription, "audio file is not readable", err)
	}

	var transcription string
	if info.Size() > MaxWhisperUploadBytes {
		transcription, err = t.transcribeChunked(ctx, audioPath)
	} else {
		transcription, err = t.request(ctx, audioPath)
	}
	if err != nil {
		return "", err
	}

	logDetectedLanguage(t.detector, transcription)
	return transcription, nil
}

func (t *WhisperTranscriber) request(ctx context.Context, audioPath string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Language: t.language,
	})
	if err != nil {
		return "", newStageError(StageTranscription, "whisper request failed", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (t *WhisperTranscriber) transcribeChunked(ctx context.Context, audioPath string) (string, error) {
	format, err := inspectWAV(audioPath)
	if err != nil {
		return "", newStageError(StageTranscription, "audio is above the upload limit and cannot be split", err)
	}
	bytesPerSecond := format.SampleRate * format.Channels * format.BitsPerSample / 8
	if bytesPerSecond <= 0 || t.ChunkDuration <= 0 {
		return "", newStageError(StageTranscription, "audio is above the upload limit and cannot be split", nil)
	}

	total := float64(format.DataBytes) / float64(bytesPerSecond)
	step := t.ChunkDuration.Seconds()
	chunkCount := int(math.Ceil(total / step))
	transcriberLog.Emit(logger.INFO, "Splitting %.0fs of audio into %d chunks\n", total, chunkCount)

	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	parts := make([]string, 0, chunkCount)
	for i := 0; i < chunkCount; i++ {
		chunkPath := fmt.Sprintf("%s_chunk_%d.wav", base, i)
		text, err := t.transcribeChunk(ctx, audioPath, chunkPath, float64(i)*step, step)
		_ = os.Remove(chunkPath)
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}

func (t *WhisperTranscriber) transcribeChunk(ctx context.Context, audioPath, chunkPath string, start, duration float64) (string, error) {
	args := buildChunkArgs(audioPath, chunkPath, start, duration)
	result, err := t.runner.Run(ctx, t.FFmpegPath, args...)
	if err != nil {
		return "", &StageError{
			Stage:   StageTranscription,
			Message: fmt.Sprintf("failed to create audio chunk (exit=%d): %s", result.ExitCode, tail(result.Stderr, 512)),
			Command: append([]string{t.FFmpegPath}, args...),
			Err:     err,
		}
	}

	info, err := os.Stat(chunkPath)
	if err != nil {
		return "", newStageError(StageTranscription, "audio chunk was not written", err)
	}
	if info.Size() > MaxWhisperUploadBytes {
		return "", newStageError(StageTranscription, fmt.Sprintf(
			"audio chunk is %d bytes, above the %d byte upload limit", info.Size(), MaxWhisperUploadBytes,
		), nil)
	}

	return t.request(ctx, chunkPath)
}

func buildChunkArgs(audioPath, chunkPath string, start, duration float64) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", audioPath,
		"-ss", strconv.FormatFloat(start, 'f', 3, 64),
		"-t", strconv.FormatFloat(duration, 'f', 3, 64),
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		chunkPath,
	}
}

func logDetectedLanguage(detector *LanguageDetector, transcription string) {
	if transcription == "" {
		transcriberLog.Emit(logger.WARNING, "Model returned no text (silent audio?)\n")
		return
	}
	if language, ok := detector.Detect(transcription); ok {
		transcriberLog.Emit(logger.INFO, "Detected transcription language: %s\n", language)
	}
}

// normalizeLanguageHint maps "auto" and empty language to no override.
func normalizeLanguageHint(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return strings.ToLower(lang)
}
