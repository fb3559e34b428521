package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rezonia/invoice-validator/internal/extraction"
	"github.com/rezonia/invoice-validator/internal/processor"
	"github.com/rezonia/invoice-validator/internal/validation"
)

const (
	DefaultMaxBodyBytes     = 10 << 20
	DefaultBatchConcurrency = 8
)

// Config holds server configuration
type Config struct {
	Address          string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MaxBodyBytes     int64
	BatchConcurrency int
	Debug            bool

	// Engine validates every request; nil means the default engine
	Engine *validation.Engine
	// Extractor backs /api/v1/extract; nil disables the endpoint
	Extractor processor.TextExtractor
	Logger    *zap.Logger
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	pipeline *processor.Pipeline
	logger   *zap.Logger
}

// NewServer creates a new API server
func NewServer(config *Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = DefaultBatchConcurrency
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(accessLog(logger))

	s := &Server{
		config: config,
		router: router,
		pipeline: processor.NewPipeline(
			processor.WithEngine(config.Engine),
			processor.WithTextExtractor(config.Extractor),
			processor.WithLogger(logger),
		),
		logger: logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	v1.Use(limitBody(s.config.MaxBodyBytes))
	{
		v1.POST("/validate", s.handleValidate)
		v1.POST("/validate/batch", s.handleValidateBatch)
		v1.POST("/extract", s.handleExtract)
	}
}

// Run starts the HTTP server and shuts it down when ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	cfg := s.pipeline.Engine().Config()
	c.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		Time:           time.Now().UTC().Format(time.RFC3339),
		ToleranceCents: cfg.ToleranceCents,
		RequiredFields: cfg.RequiredFields,
		LLMEnabled:     s.pipeline.HasTextExtractor(),
	})
}

// handleValidate validates one extraction result. A failing invoice is
// still a 200; only unreadable payloads are rejected.
func (s *Server) handleValidate(c *gin.Context) {
	engine, ok := s.requestEngine(c)
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	result, _, err := s.pipeline.Load(c.Request.Context(), body)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid extraction payload", err)
		return
	}

	c.JSON(http.StatusOK, engine.Validate(result))
}

func (s *Server) handleValidateBatch(c *gin.Context) {
	engine, ok := s.requestEngine(c)
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	inputs, err := extraction.DecodeBatch(body)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid extraction batch", err)
		return
	}

	results, err := engine.ValidateBatch(c.Request.Context(), inputs, s.config.BatchConcurrency)
	if err != nil {
		abortWithError(c, http.StatusServiceUnavailable, "batch validation interrupted", err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func (s *Server) handleExtract(c *gin.Context) {
	if !s.pipeline.HasTextExtractor() {
		abortWithError(c, http.StatusServiceUnavailable, "text extraction unavailable", errors.New("no LLM API key configured"))
		return
	}
	engine, ok := s.requestEngine(c)
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	result := s.pipeline.Using(engine).ProcessText(ctx, string(body))
	if result.Error != nil {
		abortWithError(c, http.StatusUnprocessableEntity, "extraction failed", result.Error)
		return
	}

	c.JSON(http.StatusOK, ExtractResponse{
		Method:     string(result.Method),
		Extraction: result.Extraction,
		Validation: result.Validation,
	})
}

// requestEngine applies the tolerance_cents query override, if any
func (s *Server) requestEngine(c *gin.Context) (*validation.Engine, bool) {
	base := s.pipeline.Engine()
	raw, present := c.GetQuery("tolerance_cents")
	if !present {
		return base, true
	}

	cents, err := strconv.Atoi(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid tolerance_cents", err)
		return nil, false
	}
	engine, err := validation.New(
		validation.WithConfig(base.Config()),
		validation.WithToleranceCents(cents),
	)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid tolerance_cents", err)
		return nil, false
	}
	return engine, true
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "request body too large", err)
			return nil, false
		}
		abortWithError(c, http.StatusBadRequest, "failed to read request body", err)
		return nil, false
	}
	if len(body) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error:     "empty request body",
			RequestID: c.GetString(requestIDKey),
		})
		return nil, false
	}
	return body, true
}

func abortWithError(c *gin.Context, status int, msg string, err error) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     msg,
		Details:   err.Error(),
		RequestID: c.GetString(requestIDKey),
	})
}
