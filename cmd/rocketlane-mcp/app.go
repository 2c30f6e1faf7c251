package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/i2y/rocketlane-mcp/configs"
	"github.com/i2y/rocketlane-mcp/internal/adapter/outbound/github"
	"github.com/i2y/rocketlane-mcp/internal/adapter/outbound/httpinvoker"
	"github.com/i2y/rocketlane-mcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/rocketlane-mcp/internal/adapter/outbound/openapi"
	"github.com/i2y/rocketlane-mcp/internal/usecase"
)

const defaultStdioLogFile = "/tmp/rocketlane-mcp.log"

// app holds the wired dependencies shared by every command.
type app struct {
	cfg      *configs.Config
	logger   *slog.Logger
	catalog  *memrepo.Catalog
	invokeUC *usecase.InvokeToolUseCase
	serveUC  *usecase.ServeToolsUseCase
}

// newLogger builds the process logger. In stdio mode stdout carries the MCP
// stream, so logs go to a file.
func newLogger(cfg *configs.Config, stderr io.Writer, stdio bool) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: cfg.ParsedLogLevel()}
	if !stdio && cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(stderr, opts)), func() {}
	}

	path := cfg.LogFile
	if path == "" {
		path = defaultStdioLogFile
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if stdio {
			return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
		}
		return slog.New(slog.NewTextHandler(stderr, opts)), func() {}
	}
	return slog.New(slog.NewTextHandler(logFile, opts)), func() { _ = logFile.Close() }
}

// newApp loads the API document, builds the operation catalog and wires the
// dispatcher. Any catalog inconsistency fails here, before serving.
func newApp(ctx context.Context, cfg *configs.Config, logger *slog.Logger) (*app, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	logger.Debug("HTTP Client configured.", slog.Duration("timeout", cfg.HTTPClientTimeout))

	fetcher := openapi.NewSchemaFetcher(httpClient, github.NewClient(), logger)
	generator := openapi.NewOperationGenerator(logger)
	syncUC := usecase.NewSyncSchemaUseCase(fetcher, generator, usecase.SyncOptions{
		Tags:   cfg.ToolTags,
		Prefix: cfg.ToolPrefix,
	}, logger)

	service, err := syncUC.Execute(ctx, cfg.OpenAPISource)
	if err != nil {
		return nil, err
	}

	catalog, err := memrepo.NewCatalog(service.Operations, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build operation catalog: %w", err)
	}

	baseURL := service.BaseURL
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	if !cfg.HasCredential() {
		logger.Warn("ROCKETLANE_API_KEY is not set; requests will be sent without credentials.")
	}
	auth := cfg.ResolveAuth(service.Auth)

	invoker, err := httpinvoker.New(httpClient, httpinvoker.Options{
		BaseURL:          baseURL,
		Credential:       cfg.APIKey,
		Auth:             auth,
		MaxResponseBytes: cfg.MaxResponseBytes,
		Headers:          cfg.Headers,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Dispatcher ready.",
		slog.String("api", service.Name),
		slog.String("base_url", baseURL),
		slog.String("auth_header", auth.Header),
		slog.Int("tool_count", catalog.Len()))

	return &app{
		cfg:      cfg,
		logger:   logger,
		catalog:  catalog,
		invokeUC: usecase.NewInvokeToolUseCase(catalog, invoker, generator.Validator(), logger),
		serveUC:  usecase.NewServeToolsUseCase(catalog, logger),
	}, nil
}
