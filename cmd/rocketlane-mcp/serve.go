package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/i2y/rocketlane-mcp/configs"
	"github.com/i2y/rocketlane-mcp/internal/adapter/inbound/mcphttp"
	"github.com/i2y/rocketlane-mcp/internal/adapter/inbound/mcptools"
	"github.com/i2y/rocketlane-mcp/internal/usecase"
)

const (
	transportStdio = "stdio"
	transportSSE   = "sse"
)

func serveCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server over stdio (for desktop MCP clients) or SSE. In SSE mode
an admin HTTP server on ROCKETLANE_ADMIN_ADDR serves /admin/tools and /healthz.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if transport != transportStdio && transport != transportSSE {
				return fmt.Errorf("invalid transport %q: want %s or %s", transport, transportStdio, transportSSE)
			}
			cfg, err := configs.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runServe(cmd.Context(), cfg, transport, cmd)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport mode: stdio or sse")
	return cmd
}

func runServe(parent context.Context, cfg *configs.Config, transport string, cmd *cobra.Command) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === Logging ===
	logger, closeLog := newLogger(cfg, cmd.ErrOrStderr(), transport == transportStdio)
	defer closeLog()
	slog.SetDefault(logger)
	logger.Info("Logger initialized.", slog.String("level", cfg.ParsedLogLevel().String()), slog.String("transport", transport))

	// === OpenTelemetry Initialization ===
	shutdownOtel, err := initOtelProvider(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry.", slog.Any("error", err))
		return err
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			logger.Error("Failed to shutdown OpenTelemetry providers.", slog.Any("error", err))
		}
	}()

	// === Dependency Injection ===
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize dispatcher.", slog.Any("error", err))
		return err
	}

	// === MCP Server (mark3labs/mcp-go) ===
	mcpSrv, err := newMCPServer(ctx, a, logger)
	if err != nil {
		return err
	}

	switch transport {
	case transportStdio:
		logger.Info("Starting in STDIO mode")
		stdioServer := mcpGoServer.NewStdioServer(mcpSrv)
		if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("STDIO server error", slog.Any("error", err))
			return err
		}
		return nil
	default:
		return runSSE(ctx, stop, cfg, a, mcpSrv, logger)
	}
}

// newMCPServer creates the MCP server with one tool per catalog operation.
func newMCPServer(ctx context.Context, a *app, logger *slog.Logger) (*mcpGoServer.MCPServer, error) {
	mcpSrv := mcpGoServer.NewMCPServer("rocketlane-mcp", version,
		mcpGoServer.WithToolCapabilities(false),
		mcpGoServer.WithRecovery(),
	)
	handlers := mcptools.NewHandlers(a.invokeUC, logger)
	registerUC := usecase.NewRegisterToolsUseCase(a.catalog, mcpSrv, handlers.Factory(), logger)
	if _, err := registerUC.Execute(ctx); err != nil {
		return nil, err
	}
	return mcpSrv, nil
}

func runSSE(ctx context.Context, stop context.CancelFunc, cfg *configs.Config, a *app, mcpSrv *mcpGoServer.MCPServer, logger *slog.Logger) error {
	logger.Info("Starting in SSE mode")
	sseServer := mcpGoServer.NewSSEServer(mcpSrv, mcpGoServer.WithBaseURL("http://"+cfg.ListenAddr))

	// === Admin HTTP Server Setup ===
	adminMux := http.NewServeMux()
	mcphttp.NewHandlers(a.serveUC, a.catalog, logger).RegisterAdminRoutes(adminMux)
	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("Admin HTTP server starting.", slog.String("address", adminServer.Addr))
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Admin HTTP server failed.", slog.Any("error", err))
			errCh <- fmt.Errorf("admin server: %w", err)
			stop()
		}
	}()
	go func() {
		logger.Info("MCP SSE server starting.", slog.String("address", cfg.ListenAddr))
		if err := sseServer.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("MCP SSE server failed.", slog.Any("error", err))
			errCh <- fmt.Errorf("sse server: %w", err)
			stop()
		}
	}()

	<-ctx.Done()

	// === Server Shutdown ===
	logger.Info("Shutting down servers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Admin HTTP server graceful shutdown failed.", slog.Any("error", err))
		errs = append(errs, err)
	}
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("MCP SSE server graceful shutdown failed.", slog.Any("error", err))
		errs = append(errs, err)
	}
drain:
	for {
		select {
		case err := <-errCh:
			errs = append(errs, err)
		default:
			break drain
		}
	}

	logger.Info("Servers shut down.")
	return errors.Join(errs...)
}
