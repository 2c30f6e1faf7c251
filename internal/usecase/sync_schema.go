package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/i2y/rocketlane-mcp/internal/domain"
)

// SyncOptions narrows and renames the generated operations.
type SyncOptions struct {
	// Tags keeps only operations carrying at least one of these tags. Empty keeps all.
	Tags []string
	// Prefix is prepended to every operation id, e.g. "rocketlane_".
	Prefix string
}

// SyncSchemaUseCase orchestrates fetching the API schema and generating the
// operation descriptors the catalog is built from.
type SyncSchemaUseCase struct {
	fetcher   SchemaFetcher
	generator OperationGenerator
	opts      SyncOptions
	logger    *slog.Logger
}

// NewSyncSchemaUseCase creates a new SyncSchemaUseCase.
func NewSyncSchemaUseCase(fetcher SchemaFetcher, generator OperationGenerator, opts SyncOptions, logger *slog.Logger) *SyncSchemaUseCase {
	return &SyncSchemaUseCase{
		fetcher:   fetcher,
		generator: generator,
		opts:      opts,
		logger:    logger.With("usecase", "SyncSchema"),
	}
}

// Execute fetches the schema from source (empty = embedded document),
// generates operations and applies the tag filter and id prefix.
func (uc *SyncSchemaUseCase) Execute(ctx context.Context, source string) (domain.Service, error) {
	log := uc.logger.With(slog.String("source", source))
	log.Info("Starting schema sync")

	schema, err := uc.fetcher.Fetch(ctx, source)
	if err != nil {
		log.Error("Failed to fetch schema", slog.Any("error", err))
		return domain.Service{}, fmt.Errorf("failed to fetch schema from %q: %w", source, err)
	}
	log.Info("Schema fetched successfully", slog.String("schema_type", string(schema.Type)))

	service, err := uc.generator.Generate(schema)
	if err != nil {
		log.Error("Failed to generate operations", slog.Any("error", err))
		return domain.Service{}, fmt.Errorf("failed to generate operations for schema %q: %w", schema.Source, err)
	}

	generated := len(service.Operations)
	kept := make([]domain.Operation, 0, generated)
	for _, op := range service.Operations {
		if len(uc.opts.Tags) > 0 && !op.HasTag(uc.opts.Tags...) {
			continue
		}
		op.ID = uc.opts.Prefix + op.ID
		kept = append(kept, op)
	}
	service.Operations = kept

	if len(kept) == 0 {
		log.Error("No operations left after filtering", slog.Any("tags", uc.opts.Tags))
		return domain.Service{}, fmt.Errorf("schema %q yields no operations for tags %v", schema.Source, uc.opts.Tags)
	}

	log.Info("Successfully synced schema",
		slog.Int("generated_count", generated),
		slog.Int("kept_count", len(kept)))
	return service, nil
}
