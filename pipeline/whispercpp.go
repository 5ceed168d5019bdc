package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// nonSpeechMarker matches the annotations whisper.cpp emits in place of speech,
// such as [BLANK_AUDIO], [MUSIC] or (wind blowing).
var nonSpeechMarker = regexp.MustCompile(`\[[^\]\n]*\]|\([^)\n]*\)`)

// WhisperCppTranscriber runs a local whisper.cpp binary. The model file is
// resolved once at construction.
type WhisperCppTranscriber struct {
	BinPath   string
	ModelPath string
	language  string
	runner    CommandRunner
	detector  *LanguageDetector
}

func NewWhisperCppTranscriber(binPath, modelPath, language string, runner CommandRunner, detector *LanguageDetector) (*WhisperCppTranscriber, error) {
	if binPath == "" {
		binPath = "whisper-cli"
	}
	if runner == nil {
		runner = ExecRunner{}
	}

	resolved, err := resolveModelPath(modelPath)
	if err != nil {
		return nil, err
	}

	return &WhisperCppTranscriber{
		BinPath:   binPath,
		ModelPath: resolved,
		language:  normalizeLanguageHint(language),
		runner:    runner,
		detector:  detector,
	}, nil
}

func (t *WhisperCppTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return "", newStageError(StageTranscription, "audio file is not readable", err)
	}

	// whisper.cpp appends .txt to the -of base; keep it next to the audio so
	// it is cleaned up with the working directory.
	textBase := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	textPath := textBase + ".txt"
	args := buildWhisperCppArgs(t.ModelPath, audioPath, textBase, t.language)

	result, err := t.runner.Run(ctx, t.BinPath, args...)
	if err != nil {
		return "", &StageError{
			Stage:   StageTranscription,
			Message: fmt.Sprintf("whisper.cpp failed (exit=%d): %s", result.ExitCode, tail(result.Stderr, 512)),
			Command: append([]string{t.BinPath}, args...),
			Err:     err,
		}
	}

	content, err := os.ReadFile(textPath)
	if err != nil {
		return "", newStageError(StageTranscription, "whisper.cpp completed but the transcript file is missing", err)
	}
	_ = os.Remove(textPath)

	transcription := stripNonSpeech(string(content))
	logDetectedLanguage(t.detector, transcription)

	return transcription, nil
}

func stripNonSpeech(text string) string {
	return strings.Join(strings.Fields(nonSpeechMarker.ReplaceAllString(text, " ")), " ")
}

func buildWhisperCppArgs(modelPath, audioPath, textBase, language string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", textBase,
		"-otxt",
		"-nt",
	}
	if language != "" {
		args = append(args, "-l", language)
	}
	return args
}

// resolveModelPath accepts a model file, or a directory holding .bin/.gguf
// models, in which case the first one by name wins.
func resolveModelPath(rawPath string) (string, error) {
	modelPath := strings.TrimSpace(rawPath)
	if modelPath == "" {
		return "", fmt.Errorf("model path is required")
	}

	info, err := os.Stat(modelPath)
	if err != nil {
		return "", fmt.Errorf("cannot access model path %s: %w", modelPath, err)
	}
	if !info.IsDir() {
		return modelPath, nil
	}

	entries, err := os.ReadDir(modelPath)
	if err != nil {
		return "", fmt.Errorf("cannot read model directory %s: %w", modelPath, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".bin" || ext == ".gguf" {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no .bin or .gguf model files found in %s", modelPath)
	}

	sort.Strings(names)
	return filepath.Join(modelPath, names[0]), nil
}
