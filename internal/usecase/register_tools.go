package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/i2y/rocketlane-mcp/internal/domain"
)

// ToolHandlerFactory builds the MCP handler for one operation.
type ToolHandlerFactory func(op domain.Operation) mcpGoServer.ToolHandlerFunc

// RegisterToolsUseCase registers one MCP tool per catalog operation.
type RegisterToolsUseCase struct {
	catalog    OperationCatalog
	server     MCPServerAdapter
	newHandler ToolHandlerFactory
	logger     *slog.Logger
}

// NewRegisterToolsUseCase creates a new RegisterToolsUseCase.
func NewRegisterToolsUseCase(catalog OperationCatalog, server MCPServerAdapter, newHandler ToolHandlerFactory, logger *slog.Logger) *RegisterToolsUseCase {
	return &RegisterToolsUseCase{
		catalog:    catalog,
		server:     server,
		newHandler: newHandler,
		logger:     logger.With("usecase", "RegisterTools"),
	}
}

// Execute adds every operation in the catalog to the MCP server and returns
// the number of tools registered.
func (uc *RegisterToolsUseCase) Execute(ctx context.Context) (int, error) {
	ops, err := uc.catalog.List(ctx)
	if err != nil {
		uc.logger.Error("Failed to list operations", slog.Any("error", err))
		return 0, fmt.Errorf("failed to list operations: %w", err)
	}
	for _, op := range ops {
		uc.server.AddTool(MCPTool(op), uc.newHandler(op))
		uc.logger.Debug("Registered tool", slog.String("tool_name", op.ID), slog.String("method", op.Method), slog.String("path", op.PathTemplate))
	}
	uc.logger.Info("Registered tools", slog.Int("count", len(ops)))
	return len(ops), nil
}

// MCPTool converts an operation into its mcp-go tool definition.
func MCPTool(op domain.Operation) mcp.Tool {
	def := domain.ToolFromOperation(op)

	props := make(map[string]interface{}, len(def.InputSchema.Properties))
	for name, prop := range def.InputSchema.Properties {
		props[name] = prop
	}
	tool := mcp.NewTool(def.Name, mcp.WithDescription(def.Description))
	tool.InputSchema = mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   def.InputSchema.Required,
	}

	tool.Annotations.Title = op.Summary
	tool.Annotations.ReadOnlyHint = boolPtr(op.ReadOnly())
	tool.Annotations.DestructiveHint = boolPtr(op.Method == "DELETE")
	tool.Annotations.IdempotentHint = boolPtr(op.ReadOnly() || op.Method == "PUT" || op.Method == "DELETE")
	tool.Annotations.OpenWorldHint = boolPtr(true)
	return tool
}

func boolPtr(b bool) *bool { return &b }
