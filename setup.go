package main

import (
	"fmt"

	"github.com/HugeFrog24/gpt-video-quiz/config"
	"github.com/HugeFrog24/gpt-video-quiz/pipeline"
	openai "github.com/sashabaranov/go-openai"
)

// buildOrchestrator constructs every expensive dependency once: the API
// client, the language detector and, for whisper.cpp, the resolved model.
func buildOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, error) {
	clientConfig := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAI.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)
	detector := pipeline.NewLanguageDetector()
	runner := pipeline.ExecRunner{}

	fetcher := pipeline.NewYtDlpFetcher(cfg.Tools.YtDlpPath, runner)
	fetcher.CookiesPath = cfg.Tools.YtDlpCookie
	fetcher.ProxyURL = cfg.Tools.YtDlpProxy

	transcoder := pipeline.NewFFmpegTranscoder(cfg.Tools.FFmpegPath, runner)

	var transcriber pipeline.Transcriber
	switch cfg.Transcription.Backend {
	case config.TranscriberWhisperCpp:
		local, err := pipeline.NewWhisperCppTranscriber(
			cfg.Transcription.WhisperCppPath,
			cfg.Transcription.WhisperCppModel,
			cfg.Transcription.Language,
			runner,
			detector,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load whisper.cpp model: %w", err)
		}
		transcriber = local
	default:
		remote := pipeline.NewWhisperTranscriber(client, cfg.Transcription.WhisperModel, cfg.Transcription.Language, detector)
		remote.FFmpegPath = cfg.Tools.FFmpegPath
		transcriber = remote
	}

	generator := pipeline.NewChatQuestionGenerator(client, pipeline.GeneratorOptions{
		Model:     cfg.Quiz.Model,
		MaxTokens: cfg.Quiz.MaxTokens,
		Seed:      cfg.Quiz.Seed,
		Language:  cfg.Quiz.Language,
		Detector:  detector,
		Condenser: pipeline.NewTranscriptCondenser(client, cfg.Quiz.Model, cfg.Quiz.CondenseThreshold, detector),
	})

	return pipeline.NewOrchestrator(fetcher, transcoder, transcriber, generator, pipeline.Options{
		WorkDirBase: cfg.WorkDir,
	}), nil
}

func dependencyReport(cfg *config.Config) (pipeline.DependencyReport, error) {
	needWhisperCpp := cfg.Transcription.Backend == config.TranscriberWhisperCpp
	whisperCppBin := ""
	if needWhisperCpp {
		whisperCppBin = cfg.Transcription.WhisperCppPath
	}
	report := pipeline.DependencyStatus(cfg.Tools.YtDlpPath, cfg.Tools.FFmpegPath, whisperCppBin)
	return report, report.Check(needWhisperCpp)
}
