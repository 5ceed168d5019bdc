package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/HugeFrog24/gpt-video-quiz/logger"
	"github.com/HugeFrog24/gpt-video-quiz/pipeline"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var log = logger.Get("HTTP")

type (
	QuizRequest struct {
		URL           string `json:"url" validate:"required,url"`
		QuestionCount int    `json:"question_count" validate:"min=3,max=15"`
	}

	// Processor is the pipeline entry point the server drives.
	Processor interface {
		Run(ctx context.Context, req pipeline.JobRequest) (pipeline.JobResult, error)
	}

	// HealthFunc reports the external tools the pipeline shells out to.
	HealthFunc func() (pipeline.DependencyReport, error)

	Server struct {
		echo      *echo.Echo
		processor Processor
		health    HealthFunc
		validate  *validator.Validate
		// The loaded models are not safe for concurrent use, so jobs run one
		// at a time.
		jobMu sync.Mutex
	}
)

func New(processor Processor, health HealthFunc) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			log.Emit(logger.DEBUG, "%s %s -> %d\n", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	s := &Server{
		echo:      e,
		processor: processor,
		health:    health,
		validate:  validator.New(),
	}
	s.setRoutes(e.Group("/api/v1"))
	return s
}

func (s *Server) setRoutes(eg *echo.Group) {
	eg.POST("/quiz", s.createQuiz)
	eg.GET("/health", s.getHealth)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	log.Emit(logger.NEW, "Listening on %s\n", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Emit(logger.STOP, "Shutting down HTTP server\n")
	return s.echo.Shutdown(ctx)
}

func (s *Server) createQuiz(ec echo.Context) error {
	var req QuizRequest
	if err := ec.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}
	req.URL = pipeline.NormalizeURL(req.URL)
	if req.QuestionCount == 0 {
		req.QuestionCount = pipeline.DefaultQuestions
	}
	if err := s.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	result, err := s.processor.Run(ec.Request().Context(), pipeline.JobRequest{
		URL:           req.URL,
		QuestionCount: req.QuestionCount,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidRequest) {
			return echo.NewHTTPError(http.StatusBadRequest, result.ErrorMessage)
		}
		return ec.JSON(http.StatusBadGateway, result)
	}

	return ec.JSON(http.StatusOK, result)
}

func (s *Server) getHealth(ec echo.Context) error {
	report, err := s.health()
	if err != nil {
		return ec.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status":       "unavailable",
			"error":        err.Error(),
			"dependencies": report,
		})
	}
	return ec.JSON(http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"dependencies": report,
	})
}
