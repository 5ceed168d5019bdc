package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
)

const (
	TargetSampleRate = 16000
	TargetChannels   = 1
)

// FFmpegTranscoder shells out to ffmpeg with a fixed argument list.
type FFmpegTranscoder struct {
	BinPath string
	runner  CommandRunner
}

func NewFFmpegTranscoder(binPath string, runner CommandRunner) *FFmpegTranscoder {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &FFmpegTranscoder{BinPath: binPath, runner: runner}
}

func (t *FFmpegTranscoder) Convert(ctx context.Context, inputPath, outputPath string) error {
	args := buildFFmpegArgs(inputPath, outputPath)
	result, err := t.runner.Run(ctx, t.BinPath, args...)
	if err != nil {
		return &StageError{
			Stage:   StageNormalization,
			Message: fmt.Sprintf("conversion failed (exit=%d): %s", result.ExitCode, tail(result.Stderr, 512)),
			Command: append([]string{t.BinPath}, args...),
			Err:     err,
		}
	}
	return nil
}

// buildFFmpegArgs builds the CLI args for mono 16 kHz signed 16-bit PCM WAV.
func buildFFmpegArgs(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outputPath,
	}
}

// Normalizer runs a Transcoder and refuses any output that is not the format
// the transcriber expects.
type Normalizer struct {
	transcoder Transcoder
}

func NewNormalizer(transcoder Transcoder) *Normalizer {
	return &Normalizer{transcoder: transcoder}
}

func (n *Normalizer) Normalize(ctx context.Context, inputPath, outputPath string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		return newStageError(StageNormalization, "conversion failed: input is not readable", err)
	}
	if info.Size() == 0 {
		return newStageError(StageNormalization, "conversion failed: input is empty", nil)
	}

	if err := n.transcoder.Convert(ctx, inputPath, outputPath); err != nil {
		var stageErr *StageError
		if errors.As(err, &stageErr) && stageErr.Stage == StageNormalization {
			return err
		}
		return newStageError(StageNormalization, "conversion failed", err)
	}

	format, err := inspectWAV(outputPath)
	if err != nil {
		return newStageError(StageNormalization, "conversion failed: output is not a readable WAV file", err)
	}
	if format.Channels != TargetChannels || format.SampleRate != TargetSampleRate {
		return newStageError(StageNormalization, fmt.Sprintf(
			"conversion failed: output is %d channel(s) at %d Hz, want %d at %d Hz",
			format.Channels, format.SampleRate, TargetChannels, TargetSampleRate,
		), nil)
	}
	if format.DataBytes == 0 {
		return newStageError(StageNormalization, "conversion failed: output contains no audio samples", nil)
	}

	return nil
}
