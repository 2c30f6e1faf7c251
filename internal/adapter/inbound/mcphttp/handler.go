package mcphttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/i2y/rocketlane-mcp/internal/domain"
	"github.com/i2y/rocketlane-mcp/internal/usecase"
)

// ToolLister produces the tool listing; satisfied by *usecase.ServeToolsUseCase.
type ToolLister interface {
	Execute(ctx context.Context) ([]domain.ToolListing, error)
}

// Handlers struct holds dependencies for the HTTP handlers.
type Handlers struct {
	lister  ToolLister
	catalog usecase.OperationCatalog
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(lister ToolLister, catalog usecase.OperationCatalog, logger *slog.Logger) *Handlers {
	return &Handlers{
		lister:  lister,
		catalog: catalog,
		logger:  logger.With("component", "mcphttp_handler"),
	}
}

// RegisterAdminRoutes sets up the HTTP routes for admin endpoints.
func (h *Handlers) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/tools", h.handleListTools)
	mux.HandleFunc("GET /admin/tools/{name}", h.handleGetTool)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// ToolsResponse is the body of GET /admin/tools.
type ToolsResponse struct {
	Count int                  `json:"count"`
	Tools []domain.ToolListing `json:"tools"`
}

// handleListTools implements GET /admin/tools[?tag=...]
func (h *Handlers) handleListTools(w http.ResponseWriter, r *http.Request) {
	listing, err := h.lister.Execute(r.Context())
	if err != nil {
		h.logger.Error("Failed to list tools", slog.Any("error", err))
		http.Error(w, fmt.Sprintf("Failed to list tools: %v", err), http.StatusInternalServerError)
		return
	}

	if tag := r.URL.Query().Get("tag"); tag != "" {
		filtered := listing[:0:0]
		for _, entry := range listing {
			if hasTag(entry.Tags, tag) {
				filtered = append(filtered, entry)
			}
		}
		listing = filtered
	}

	h.writeJSON(w, http.StatusOK, ToolsResponse{Count: len(listing), Tools: listing})
}

// handleGetTool implements GET /admin/tools/{name}: the tool definition with
// its input schema.
func (h *Handlers) handleGetTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	op, err := h.catalog.FindOperationByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrToolNotFound) {
			http.Error(w, fmt.Sprintf("Tool %q not found", name), http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to look up tool", slog.String("tool_name", name), slog.Any("error", err))
		http.Error(w, fmt.Sprintf("Failed to look up tool: %v", err), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.ToolFromOperation(*op))
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		h.logger.Warn("Failed to write response", slog.Any("error", err))
	}
}

func hasTag(tags []string, want string) bool {
	op := domain.Operation{Tags: tags}
	return op.HasTag(want)
}
