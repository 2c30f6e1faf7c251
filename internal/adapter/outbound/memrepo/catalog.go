package memrepo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/i2y/rocketlane-mcp/internal/domain"
)

// Catalog is the in-memory, read-only table of operations. It is filled once
// by NewCatalog and never written again, so concurrent readers need no locking.
type Catalog struct {
	operations map[string]domain.Operation // operation id -> descriptor
	order      []string
	logger     *slog.Logger
}

// NewCatalog validates the operations and freezes them into a Catalog.
// Duplicate ids and path templates whose placeholders differ from the
// declared path parameters are rejected.
func NewCatalog(ops []domain.Operation, logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{
		operations: make(map[string]domain.Operation, len(ops)),
		order:      make([]string, 0, len(ops)),
		logger:     logger.With("component", "mem_catalog"),
	}
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			c.logger.Error("Invalid operation", slog.Int("index", i), slog.Any("error", err))
			return nil, fmt.Errorf("invalid operation at index %d: %w", i, err)
		}
		if _, dup := c.operations[op.ID]; dup {
			c.logger.Error("Duplicate operation id", slog.String("tool_name", op.ID))
			return nil, fmt.Errorf("duplicate operation id %q", op.ID)
		}
		c.operations[op.ID] = cloneOperation(op)
		c.order = append(c.order, op.ID)
	}
	c.logger.Info("Catalog built", slog.Int("count", len(c.order)))
	return c, nil
}

// List returns all operations in the order they were declared.
func (c *Catalog) List(ctx context.Context) ([]domain.Operation, error) {
	list := make([]domain.Operation, 0, len(c.order))
	for _, id := range c.order {
		list = append(list, cloneOperation(c.operations[id]))
	}
	c.logger.Debug("Listed operations from catalog", slog.Int("count", len(list)))
	return list, nil
}

// FindOperationByName retrieves an operation by its id.
func (c *Catalog) FindOperationByName(ctx context.Context, name string) (*domain.Operation, error) {
	op, ok := c.operations[name]
	if !ok {
		c.logger.Warn("Operation not found", slog.String("tool_name", name))
		return nil, domain.ErrToolNotFound
	}
	op = cloneOperation(op)
	return &op, nil
}

// Len returns the number of operations.
func (c *Catalog) Len() int { return len(c.order) }

// cloneOperation copies the slices of an operation so callers cannot mutate
// the catalog through them.
func cloneOperation(op domain.Operation) domain.Operation {
	op.Tags = append([]string(nil), op.Tags...)
	params := make([]domain.Parameter, len(op.Parameters))
	for i, p := range op.Parameters {
		p.Enum = append([]interface{}(nil), p.Enum...)
		params[i] = p
	}
	op.Parameters = params
	return op
}
