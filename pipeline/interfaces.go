package pipeline

import (
	"context"
)

// MediaFetcher downloads the media behind url into destDir and returns the
// local file path.
type MediaFetcher interface {
	Fetch(ctx context.Context, url, destDir string) (string, error)
}

// Transcoder converts inputPath to mono 16 kHz PCM at outputPath, overwriting
// anything already there.
type Transcoder interface {
	Convert(ctx context.Context, inputPath, outputPath string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, transcript string, count int) (string, error)
}

// CommandRunner executes an external tool and captures its output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}
