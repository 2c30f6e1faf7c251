// Package mcptools turns catalog operations into mcp-go tool handlers.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/i2y/rocketlane-mcp/internal/domain"
	"github.com/i2y/rocketlane-mcp/internal/usecase"
)

// Executor runs one tool invocation; satisfied by *usecase.InvokeToolUseCase.
type Executor interface {
	Execute(ctx context.Context, toolName string, params map[string]interface{}) (interface{}, error)
}

// Handlers builds tool handlers that delegate to exec.
type Handlers struct {
	exec   Executor
	logger *slog.Logger
}

// NewHandlers creates a new Handlers.
func NewHandlers(exec Executor, logger *slog.Logger) *Handlers {
	return &Handlers{
		exec:   exec,
		logger: logger.With("component", "mcp_tools"),
	}
}

// Factory returns the handler factory the registration use case expects.
func (h *Handlers) Factory() usecase.ToolHandlerFactory {
	return h.NewToolHandler
}

// NewToolHandler returns the handler for op. Dispatcher failures are
// returned as tool results with isError set, never as protocol errors.
func (h *Handlers) NewToolHandler(op domain.Operation) mcpGoServer.ToolHandlerFunc {
	name := op.ID
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]interface{}{}
		}

		result, err := h.exec.Execute(ctx, name, args)
		if err != nil {
			h.logger.Debug("Tool call failed", slog.String("tool_name", name), slog.Any("error", err))
			return mcp.NewToolResultError(ErrorText(err)), nil
		}

		text, err := FormatResult(result)
		if err != nil {
			h.logger.Error("Failed to encode tool result", slog.String("tool_name", name), slog.Any("error", err))
			return mcp.NewToolResultError(fmt.Sprintf("internal_error: encoding result: %v", err)), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// FormatResult renders a decoded response as indented JSON. Non-JSON text
// bodies are returned as-is; JSON strings keep their quotes.
func FormatResult(result interface{}) (string, error) {
	if text, ok := result.(domain.TextBody); ok {
		return string(text), nil
	}
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ErrorKind classifies err for callers: missing_parameter, invalid_parameter,
// remote_error, transport_error, tool_not_found or internal_error.
func ErrorKind(err error) string {
	var missingErr *domain.MissingParameterError
	var invalidErr *domain.InvalidParameterError
	var remoteErr *domain.RemoteError
	var transportErr *domain.TransportError
	switch {
	case errors.As(err, &missingErr):
		return "missing_parameter"
	case errors.As(err, &invalidErr):
		return "invalid_parameter"
	case errors.As(err, &remoteErr):
		return "remote_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.Is(err, domain.ErrToolNotFound):
		return "tool_not_found"
	default:
		return "internal_error"
	}
}

// ErrorText is the tool-error message: "<kind>: <message>". Remote errors
// carry the status code and the response body verbatim.
func ErrorText(err error) string {
	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) {
		return fmt.Sprintf("remote_error: status %d: %s", remoteErr.StatusCode, remoteErr.Body)
	}
	return ErrorKind(err) + ": " + err.Error()
}
