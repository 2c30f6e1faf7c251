package mcphttp_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/rocketlane-mcp/internal/adapter/inbound/mcphttp"
	"github.com/i2y/rocketlane-mcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/rocketlane-mcp/internal/domain"
	"github.com/i2y/rocketlane-mcp/internal/usecase"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog, err := memrepo.NewCatalog([]domain.Operation{
		{
			ID:           "get_task",
			Method:       http.MethodGet,
			PathTemplate: "/1.0/tasks/{taskId}",
			Summary:      "Get a task by id.",
			Tags:         []string{"Tasks", "important"},
			Parameters: []domain.Parameter{
				{Name: "taskId", WireName: "taskId", Location: domain.LocationPath, Required: true, Type: domain.TypeString},
			},
		},
		{
			ID:           "create_project",
			Method:       http.MethodPost,
			PathTemplate: "/1.0/projects",
			Summary:      "Create a project.",
			Tags:         []string{"Projects"},
			HasBody:      true,
			Parameters: []domain.Parameter{
				{Name: "projectName", WireName: "projectName", Location: domain.LocationBody, Required: true, Type: domain.TypeString},
			},
		},
	}, logger)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mcphttp.NewHandlers(usecase.NewServeToolsUseCase(catalog, logger), catalog, logger).RegisterAdminRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestListTools(t *testing.T) {
	server := newTestServer(t)

	var body mcphttp.ToolsResponse
	resp := getJSON(t, server.URL+"/admin/tools", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "create_project", body.Tools[0].Name)
	assert.Equal(t, "get_task", body.Tools[1].Name)
	assert.Equal(t, "Get a task by id.", body.Tools[1].Description)
	assert.Equal(t, "/1.0/tasks/{taskId}", body.Tools[1].Path)
}

func TestListTools_TagFilter(t *testing.T) {
	server := newTestServer(t)

	var body mcphttp.ToolsResponse
	getJSON(t, server.URL+"/admin/tools?tag=IMPORTANT", &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "get_task", body.Tools[0].Name)

	body = mcphttp.ToolsResponse{}
	getJSON(t, server.URL+"/admin/tools?tag=nothing", &body)
	assert.Equal(t, 0, body.Count)
	assert.NotNil(t, body.Tools)
}

func TestGetTool(t *testing.T) {
	server := newTestServer(t)

	var tool domain.Tool
	resp := getJSON(t, server.URL+"/admin/tools/get_task", &tool)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "get_task", tool.Name)
	assert.Equal(t, "object", tool.InputSchema.Type)
	assert.Equal(t, []string{"taskId"}, tool.InputSchema.Required)
	assert.Contains(t, tool.InputSchema.Properties, "taskId")

	resp = getJSON(t, server.URL+"/admin/tools/missing_tool", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))

	resp, err = http.Post(server.URL+"/healthz", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
