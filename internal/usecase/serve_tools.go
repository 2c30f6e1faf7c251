package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/i2y/rocketlane-mcp/internal/domain"
)

// ServeToolsUseCase produces the tool listing: each tool name with its
// one-line description. The listing has no runtime effect.
type ServeToolsUseCase struct {
	catalog OperationCatalog
	logger  *slog.Logger
}

// NewServeToolsUseCase creates a new ServeToolsUseCase.
func NewServeToolsUseCase(catalog OperationCatalog, logger *slog.Logger) *ServeToolsUseCase {
	return &ServeToolsUseCase{
		catalog: catalog,
		logger:  logger.With("usecase", "ServeTools"),
	}
}

// Execute returns the listing of all tools, sorted by name.
func (uc *ServeToolsUseCase) Execute(ctx context.Context) ([]domain.ToolListing, error) {
	uc.logger.Debug("Listing tools")
	ops, err := uc.catalog.List(ctx)
	if err != nil {
		uc.logger.Error("Failed to list tools from catalog", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list tools from catalog: %w", err)
	}

	listing := make([]domain.ToolListing, 0, len(ops))
	for _, op := range ops {
		listing = append(listing, domain.ListingFromOperation(op))
	}
	sort.Slice(listing, func(i, j int) bool { return listing[i].Name < listing[j].Name })

	uc.logger.Debug("Successfully listed tools", slog.Int("count", len(listing)))
	return listing, nil
}
