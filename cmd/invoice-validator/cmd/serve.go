package cmd

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/invoice-validator/internal/server"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for validating invoices.

The API provides endpoints for:
  - POST /api/v1/validate         - Validate one extraction result (JSON or XML)
  - POST /api/v1/validate/batch   - Validate a JSON array of extraction results
  - POST /api/v1/extract          - Extract from raw text with an LLM, then validate
  - GET  /health                  - Health check

Validation endpoints accept ?tolerance_cents=N to override the tolerance for
one request.

Examples:
  # Start server on the configured port (env: VALIDATOR_HOST, VALIDATOR_PORT)
  invoice-validator serve

  # Start on a custom address with LLM extraction enabled
  invoice-validator serve --address :9090 --api-key <key>

  # Start in debug mode
  invoice-validator serve --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (default: VALIDATOR_HOST:VALIDATOR_PORT)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 0, "HTTP read timeout (env: VALIDATOR_READ_TIMEOUT)")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 0, "HTTP write timeout (env: VALIDATOR_WRITE_TIMEOUT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newServerLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	engine, err := newEngine()
	if err != nil {
		return err
	}

	addr := serverAddr
	if addr == "" {
		addr = net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	}
	if readTimeout > 0 {
		cfg.Server.ReadTimeout = readTimeout
	}
	if writeTimeout > 0 {
		cfg.Server.WriteTimeout = writeTimeout
	}

	extractor := newExtractor(logger)
	srv := server.NewServer(&server.Config{
		Address:          addr,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		BatchConcurrency: cfg.Batch.Concurrency,
		Debug:            serverDebug,
		Engine:           engine,
		Extractor:        extractor,
		Logger:           logger,
	})

	logger.Info("starting server",
		zap.String("address", addr),
		zap.Int("tolerance_cents", cfg.Validation.ToleranceCents),
		zap.Strings("required_fields", cfg.Validation.RequiredFields),
		zap.Bool("llm_enabled", extractor != nil),
	)

	return srv.Run(cmd.Context())
}

func newServerLogger() (*zap.Logger, error) {
	if verbose || serverDebug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
