package usecase

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/i2y/rocketlane-mcp/internal/domain"
)

// --- Schema Source Related ---

// SchemaFetcher loads an API schema document.
type SchemaFetcher interface {
	// Fetch loads the schema named by source. An empty source selects the
	// document embedded in the binary.
	Fetch(ctx context.Context, source string) (domain.APISchema, error)
}

// OperationGenerator turns a fetched APISchema into Operation descriptors.
type OperationGenerator interface {
	Generate(schema domain.APISchema) (domain.Service, error)
}

// OperationCatalog is the read-only table of operations, built once at startup.
type OperationCatalog interface {
	// List returns every operation in catalog order.
	List(ctx context.Context) ([]domain.Operation, error)

	// FindOperationByName returns the operation whose id equals name, or
	// domain.ErrToolNotFound.
	FindOperationByName(ctx context.Context, name string) (*domain.Operation, error)
}

// --- Tool Invocation Related ---

// ArgumentValidator checks one argument value against the schema the API
// document declares for it. The returned error is the reason the value is
// rejected.
type ArgumentValidator interface {
	ValidateArgument(op domain.Operation, param domain.Parameter, value interface{}) error
}

// ToolInvoker executes one bound invocation against the remote API and
// returns the decoded response body.
type ToolInvoker interface {
	Invoke(ctx context.Context, inv domain.Invocation) (interface{}, error)
}

// --- MCP Server Abstraction ---

// MCPServerAdapter is the part of the MCP server the registration use case
// needs, satisfied by *server.MCPServer from mcp-go.
type MCPServerAdapter interface {
	AddTool(tool mcp.Tool, handlerFunc mcpGoServer.ToolHandlerFunc)
}
