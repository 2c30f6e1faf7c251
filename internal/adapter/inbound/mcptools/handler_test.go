package mcptools_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i2y/rocketlane-mcp/internal/adapter/inbound/mcptools"
	"github.com/i2y/rocketlane-mcp/internal/domain"
)

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, toolName string, params map[string]interface{}) (interface{}, error) {
	args := m.Called(ctx, toolName, params)
	return args.Get(0), args.Error(1)
}

func callRequest(name string, arguments map[string]interface{}) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = arguments
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewToolHandler_Success(t *testing.T) {
	exec := new(MockExecutor)
	handlers := mcptools.NewHandlers(exec, slog.New(slog.NewTextHandler(io.Discard, nil)))
	op := domain.Operation{ID: "get_task", Method: "GET", PathTemplate: "/1.0/tasks/{taskId}"}

	args := map[string]interface{}{"taskId": "123"}
	exec.On("Execute", mock.Anything, "get_task", args).
		Return(map[string]interface{}{"taskId": json.Number("123"), "taskName": "Design doc"}, nil).Once()

	result, err := handlers.NewToolHandler(op)(context.Background(), callRequest("get_task", args))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"taskId":123,"taskName":"Design doc"}`, resultText(t, result))
	exec.AssertExpectations(t)
}

func TestNewToolHandler_NilArgumentsAndNilResult(t *testing.T) {
	exec := new(MockExecutor)
	handler := mcptools.NewHandlers(exec, slog.New(slog.NewTextHandler(io.Discard, nil))).
		Factory()(domain.Operation{ID: "archive_project"})

	exec.On("Execute", mock.Anything, "archive_project", map[string]interface{}{}).Return(nil, nil).Once()

	result, err := handler(context.Background(), callRequest("archive_project", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "null", resultText(t, result))
	exec.AssertExpectations(t)
}

func TestNewToolHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{
			name:     "missing parameter",
			err:      &domain.MissingParameterError{Operation: "get_task", Parameter: "taskId"},
			wantText: "missing_parameter: missing required parameter 'taskId' for get_task",
		},
		{
			name:     "invalid parameter",
			err:      &domain.InvalidParameterError{Operation: "get_task", Parameter: "bogus", Reason: "unknown parameter"},
			wantText: "invalid_parameter: invalid parameter 'bogus' for get_task: unknown parameter",
		},
		{
			name:     "remote error keeps status and body",
			err:      fmt.Errorf("failed to invoke tool get_task: %w", &domain.RemoteError{StatusCode: 404, Body: []byte(`{"error":"not found"}`)}),
			wantText: `remote_error: status 404: {"error":"not found"}`,
		},
		{
			name:     "transport error",
			err:      &domain.TransportError{Method: "GET", URL: "https://api.rocketlane.com/api/1.0/tasks/1", Err: context.DeadlineExceeded},
			wantText: "transport_error: GET https://api.rocketlane.com/api/1.0/tasks/1: context deadline exceeded",
		},
		{
			name:     "unknown tool",
			err:      fmt.Errorf("tool 'nope' definition not found: %w", domain.ErrToolNotFound),
			wantText: "tool_not_found: tool 'nope' definition not found: tool not found",
		},
		{
			name:     "anything else",
			err:      errors.New("boom"),
			wantText: "internal_error: boom",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := new(MockExecutor)
			handler := mcptools.NewHandlers(exec, slog.New(slog.NewTextHandler(io.Discard, nil))).
				NewToolHandler(domain.Operation{ID: "get_task"})
			exec.On("Execute", mock.Anything, "get_task", mock.Anything).Return(nil, tc.err).Once()

			result, err := handler(context.Background(), callRequest("get_task", map[string]interface{}{}))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Equal(t, tc.wantText, resultText(t, result))
		})
	}
}

func TestFormatResult(t *testing.T) {
	text, err := mcptools.FormatResult(domain.TextBody("plain body"))
	require.NoError(t, err)
	assert.Equal(t, "plain body", text)

	text, err = mcptools.FormatResult("plain")
	require.NoError(t, err)
	assert.Equal(t, `"plain"`, text)

	text, err = mcptools.FormatResult([]interface{}{json.Number("1.50")})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.50]`, text)
}
