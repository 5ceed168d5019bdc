package main

import (
	"context"
	"encoding/xml"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HugeFrog24/gpt-video-quiz/config"
	"github.com/HugeFrog24/gpt-video-quiz/logger"
	"github.com/HugeFrog24/gpt-video-quiz/pipeline"
	"github.com/HugeFrog24/gpt-video-quiz/server"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file (environment variables still override it)")
	questions := flag.Int("n", pipeline.DefaultQuestions, fmt.Sprintf("number of questions (%d-%d)", pipeline.MinQuestions, pipeline.MaxQuestions))
	asXML := flag.Bool("xml", false, "print the job result as XML")
	serve := flag.Bool("serve", false, "serve the HTTP API instead of running a single job")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	level, err := logger.ParseStatus(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	logger.Log.SetMinStatus(level)
	logger.Log.SetOutput(os.Stderr)

	// Leftovers from a crashed run are only swept from a base dir we own.
	if cfg.WorkDir != "" {
		if _, err := pipeline.SweepStaleWorkDirs(cfg.WorkDir); err != nil {
			log.Printf("Failed to clean up %s: %v", cfg.WorkDir, err)
		}
	}

	orchestrator, err := buildOrchestrator(cfg)
	if err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Cancelling the context kills any running external tool; the job still
	// removes its working directory on the way out.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *serve {
		runServer(ctx, cfg, orchestrator)
		return
	}

	if flag.NArg() < 1 {
		log.Fatal("Usage: gpt-video-quiz [-n 5] [-xml] [-config file.yml] <video_url>")
	}

	result := orchestrator.Process(ctx, flag.Arg(0), *questions)
	if err := printResult(result, *asXML); err != nil {
		log.Fatalf("Failed to print result: %v", err)
	}
	if result.Failed() {
		os.Exit(1)
	}
}

func runServer(ctx context.Context, cfg *config.Config, orchestrator *pipeline.Orchestrator) {
	srv := server.New(orchestrator, func() (pipeline.DependencyReport, error) {
		return dependencyReport(cfg)
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down server: %v", err)
		}
	}()

	if err := srv.Start(cfg.Addr()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printResult(result pipeline.JobResult, asXML bool) error {
	if asXML {
		encoder := xml.NewEncoder(os.Stdout)
		encoder.Indent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
		fmt.Println()
		return encoder.Flush()
	}

	if result.Failed() {
		fmt.Fprintln(os.Stderr, result.ErrorMessage)
		return nil
	}

	fmt.Println("Transcription:")
	fmt.Println(result.Transcript)
	fmt.Println()
	fmt.Println("Questions:")
	fmt.Println(result.Quiz)
	return nil
}
