package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/i2y/rocketlane-mcp/internal/domain"
)

const instrumentationName = "github.com/i2y/rocketlane-mcp/internal/usecase"

// InvokeToolUseCase handles receiving a tool invocation request and executing it.
type InvokeToolUseCase struct {
	catalog   OperationCatalog
	invoker   ToolInvoker
	validator ArgumentValidator
	logger    *slog.Logger
	calls     metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewInvokeToolUseCase creates a new InvokeToolUseCase. validator may be nil,
// in which case argument values are not checked against their schemas.
func NewInvokeToolUseCase(catalog OperationCatalog, invoker ToolInvoker, validator ArgumentValidator, logger *slog.Logger) *InvokeToolUseCase {
	meter := otel.Meter(instrumentationName)
	calls, err := meter.Int64Counter("rocketlane.tool.invocations",
		metric.WithDescription("Tool invocations by tool and outcome."))
	if err != nil {
		logger.Warn("Failed to create invocation counter", slog.Any("error", err))
	}
	duration, err := meter.Float64Histogram("rocketlane.tool.duration",
		metric.WithDescription("Tool invocation latency."),
		metric.WithUnit("s"))
	if err != nil {
		logger.Warn("Failed to create duration histogram", slog.Any("error", err))
	}
	return &InvokeToolUseCase{
		catalog:   catalog,
		invoker:   invoker,
		validator: validator,
		logger:    logger.With("usecase", "InvokeTool"),
		calls:     calls,
		duration:  duration,
	}
}

// Execute finds the operation, binds and validates the arguments, and uses
// the ToolInvoker to call the upstream API. Argument errors are returned
// before any network call is made.
func (uc *InvokeToolUseCase) Execute(ctx context.Context, toolName string, params map[string]interface{}) (interface{}, error) {
	log := uc.logger.With(slog.String("tool_name", toolName), slog.String("invocation_id", uuid.NewString()))
	log.Info("Executing tool invocation")
	start := time.Now()

	op, err := uc.catalog.FindOperationByName(ctx, toolName)
	if err != nil {
		log.Warn("Tool definition not found", slog.Any("error", err))
		uc.record(ctx, toolName, "not_found", start)
		return nil, fmt.Errorf("tool '%s' definition not found: %w", toolName, err)
	}

	inv, err := BindArguments(*op, params, uc.validator)
	if err != nil {
		log.Warn("Invalid tool arguments", slog.Any("error", err))
		uc.record(ctx, toolName, "invalid_arguments", start)
		return nil, err
	}
	log.Debug("Bound invocation",
		slog.Any("path_values", inv.PathValues),
		slog.String("query", inv.Query.Encode()))

	result, err := uc.invoker.Invoke(ctx, inv)
	if err != nil {
		log.Error("Failed to invoke upstream tool", slog.Any("error", err))
		uc.record(ctx, toolName, outcome(err), start)
		return nil, fmt.Errorf("failed to invoke tool %s: %w", toolName, err)
	}

	log.Info("Tool invocation successful", slog.Duration("elapsed", time.Since(start)))
	uc.record(ctx, toolName, "ok", start)
	return result, nil
}

func (uc *InvokeToolUseCase) record(ctx context.Context, toolName, result string, start time.Time) {
	attrs := metric.WithAttributes(
		attribute.String("tool", toolName),
		attribute.String("outcome", result),
	)
	if uc.calls != nil {
		uc.calls.Add(ctx, 1, attrs)
	}
	if uc.duration != nil {
		uc.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

func outcome(err error) string {
	var remoteErr *domain.RemoteError
	var transportErr *domain.TransportError
	switch {
	case errors.As(err, &remoteErr):
		return "remote_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	default:
		return "error"
	}
}
