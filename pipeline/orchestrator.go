package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugeFrog24/gpt-video-quiz/logger"
	"github.com/google/uuid"
)

const (
	DefaultErrorPrefix = "Erro: "
	normalizedFileName = "normalized-16k-mono.wav"
)

var log = logger.Get("Pipeline")

type Options struct {
	// WorkDirBase is where per-job directories are created; empty means the
	// system temp dir.
	WorkDirBase string
	// ErrorPrefix is prepended to the message shown in place of the transcript.
	ErrorPrefix string
	// OnState observes every state change of every job.
	OnState func(jobID uuid.UUID, state JobState)
}

// Orchestrator runs fetch, normalize, transcribe and generate for one job at
// a time per call. It holds no per-job state, but the transcriber and
// generator it wraps are shared; callers that run jobs concurrently must make
// sure those tolerate it.
type Orchestrator struct {
	fetcher     MediaFetcher
	normalizer  *Normalizer
	transcriber Transcriber
	generator   QuestionGenerator
	opts        Options
	mkdirTemp   func(dir, pattern string) (string, error)
	removeAll   func(path string) error
}

func NewOrchestrator(fetcher MediaFetcher, transcoder Transcoder, transcriber Transcriber, generator QuestionGenerator, opts Options) *Orchestrator {
	if opts.ErrorPrefix == "" {
		opts.ErrorPrefix = DefaultErrorPrefix
	}
	return &Orchestrator{
		fetcher:     fetcher,
		normalizer:  NewNormalizer(transcoder),
		transcriber: transcriber,
		generator:   generator,
		opts:        opts,
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
	}
}

// Process is the UI-facing entry point. The question count is clamped and
// every failure is folded into the error variant of JobResult.
func (o *Orchestrator) Process(ctx context.Context, url string, questionCount int) JobResult {
	result, _ := o.Run(ctx, NewJobRequest(url, questionCount))
	return result
}

// Run executes one job. The returned error, when non-nil, is a *StageError
// naming the stage that failed; the JobResult is always populated.
func (o *Orchestrator) Run(ctx context.Context, req JobRequest) (JobResult, error) {
	job := NewJob()
	o.notify(job)
	log.Emit(logger.NEW, "Job %s created for %s (%d questions)\n", job.ID, req.URL, req.QuestionCount)

	if err := req.Validate(); err != nil {
		return o.fail(job, err)
	}

	workDir, err := createWorkDir(o.opts.WorkDirBase, job.ID, o.mkdirTemp, o.removeAll)
	if err != nil {
		return o.fail(job, newStageError(StageAcquisition, "failed to prepare working directory", err))
	}
	defer func() {
		if err := workDir.Remove(); err != nil {
			log.Emit(logger.ERROR, "Job %s: %v\n", job.ID, err)
			return
		}
		log.Emit(logger.REMOVE, "Job %s: working directory removed\n", job.ID)
	}()

	transcript, quiz, err := o.runStages(ctx, job, req, workDir.Path)
	if err != nil {
		return o.fail(job, err)
	}

	if err := o.advance(job, StateDone); err != nil {
		return o.fail(job, err)
	}
	log.Emit(logger.SUCCESS, "Job %s done\n", job.ID)

	return successResult(transcript, quiz), nil
}

func (o *Orchestrator) runStages(ctx context.Context, job *Job, req JobRequest, dir string) (string, string, error) {
	if err := o.advance(job, StateDownloading); err != nil {
		return "", "", err
	}
	mediaPath, err := o.fetcher.Fetch(ctx, req.URL, dir)
	if err != nil {
		return "", "", asStageError(StageAcquisition, err)
	}
	log.Emit(logger.INFO, "Job %s: downloaded %s\n", job.ID, filepath.Base(mediaPath))

	if err := o.advance(job, StateConverting); err != nil {
		return "", "", err
	}
	audioPath := filepath.Join(dir, normalizedFileName)
	if filepath.Clean(mediaPath) == audioPath {
		audioPath = filepath.Join(dir, "normalized-"+job.ID.String()+".wav")
	}
	if err := o.normalizer.Normalize(ctx, mediaPath, audioPath); err != nil {
		return "", "", asStageError(StageNormalization, err)
	}
	o.discard(job, mediaPath)

	if err := o.advance(job, StateTranscribing); err != nil {
		return "", "", err
	}
	transcript, err := o.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return "", "", asStageError(StageTranscription, err)
	}
	o.discard(job, audioPath)

	if err := o.advance(job, StateGenerating); err != nil {
		return "", "", err
	}
	quiz, err := o.generator.GenerateQuestions(ctx, transcript, req.QuestionCount)
	if err != nil {
		return "", "", asStageError(StageGeneration, err)
	}
	if strings.TrimSpace(quiz) == "" && strings.TrimSpace(transcript) != "" {
		return "", "", newStageError(StageGeneration, "model returned an empty quiz", nil)
	}

	return transcript, quiz, nil
}

func (o *Orchestrator) advance(job *Job, state JobState) error {
	if err := job.Transition(state); err != nil {
		return newStageError(stageEntering(state), "", err)
	}
	log.Emit(logger.DEBUG, "Job %s -> %s\n", job.ID, state)
	o.notify(job)
	return nil
}

func (o *Orchestrator) fail(job *Job, err error) (JobResult, error) {
	if !job.Terminal() {
		_ = job.Transition(StateFailed)
		o.notify(job)
	}

	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = "unknown error"
	}
	log.Emit(logger.ERROR, "Job %s failed: %s\n", job.ID, message)

	return failureResult(o.opts.ErrorPrefix + message), err
}

func (o *Orchestrator) notify(job *Job) {
	if o.opts.OnState != nil {
		o.opts.OnState(job.ID, job.State)
	}
}

// discard drops an intermediate file as soon as the next stage owns its output.
func (o *Orchestrator) discard(job *Job, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Emit(logger.WARNING, "Job %s: could not remove %s: %v\n", job.ID, path, err)
	}
}

// stageEntering names the stage a transition into state starts.
func stageEntering(state JobState) Stage {
	switch state {
	case StateDownloading:
		return StageAcquisition
	case StateConverting:
		return StageNormalization
	case StateTranscribing:
		return StageTranscription
	default:
		return StageGeneration
	}
}

func asStageError(stage Stage, err error) error {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return err
	}
	return newStageError(stage, "", err)
}
