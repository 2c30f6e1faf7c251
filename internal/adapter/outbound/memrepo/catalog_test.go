package memrepo_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/rocketlane-mcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/rocketlane-mcp/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func taskOp(id string) domain.Operation {
	return domain.Operation{
		ID:           id,
		Method:       "GET",
		PathTemplate: "/1.0/tasks/{taskId}",
		Tags:         []string{"Tasks"},
		Parameters: []domain.Parameter{
			{Name: "taskId", WireName: "taskId", Location: domain.LocationPath, Required: true, Type: domain.TypeString},
		},
	}
}

func TestNewCatalog(t *testing.T) {
	tests := []struct {
		name    string
		ops     []domain.Operation
		wantErr string
		wantLen int
	}{
		{
			name:    "Valid operations",
			ops:     []domain.Operation{taskOp("get_task"), taskOp("delete_task")},
			wantLen: 2,
		},
		{
			name:    "Empty",
			wantLen: 0,
		},
		{
			name:    "Duplicate id",
			ops:     []domain.Operation{taskOp("get_task"), taskOp("get_task")},
			wantErr: `duplicate operation id "get_task"`,
		},
		{
			name: "Placeholder without path parameter",
			ops: []domain.Operation{{
				ID:           "get_task",
				Method:       "GET",
				PathTemplate: "/1.0/tasks/{taskId}",
			}},
			wantErr: "placeholder {taskId} has no path parameter",
		},
		{
			name: "Path parameter missing from template",
			ops: []domain.Operation{{
				ID:           "get_tasks",
				Method:       "GET",
				PathTemplate: "/1.0/tasks",
				Parameters: []domain.Parameter{
					{Name: "taskId", WireName: "taskId", Location: domain.LocationPath, Required: true},
				},
			}},
			wantErr: `path parameter "taskId" does not appear in /1.0/tasks`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			catalog, err := memrepo.NewCatalog(tc.ops, testLogger())
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				assert.Nil(t, catalog)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantLen, catalog.Len())
		})
	}
}

func TestCatalog_ListKeepsOrder(t *testing.T) {
	ctx := context.Background()
	ids := []string{"get_task", "delete_task", "archive_task"}
	ops := make([]domain.Operation, 0, len(ids))
	for _, id := range ids {
		ops = append(ops, taskOp(id))
	}
	catalog, err := memrepo.NewCatalog(ops, testLogger())
	require.NoError(t, err)

	list, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, op := range list {
		assert.Equal(t, ids[i], op.ID)
	}
	assert.Equal(t, ops, list)
}

func TestCatalog_FindOperationByName(t *testing.T) {
	ctx := context.Background()
	catalog, err := memrepo.NewCatalog([]domain.Operation{taskOp("get_task")}, testLogger())
	require.NoError(t, err)

	op, err := catalog.FindOperationByName(ctx, "get_task")
	require.NoError(t, err)
	assert.Equal(t, "/1.0/tasks/{taskId}", op.PathTemplate)

	_, err = catalog.FindOperationByName(ctx, "get_tasks")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	source := taskOp("get_task")
	catalog, err := memrepo.NewCatalog([]domain.Operation{source}, testLogger())
	require.NoError(t, err)

	// Mutating the input after construction does not leak in.
	source.Parameters[0].Name = "changed"

	op, err := catalog.FindOperationByName(ctx, "get_task")
	require.NoError(t, err)
	op.Tags[0] = "Mutated"
	op.Parameters[0].Required = false

	again, err := catalog.FindOperationByName(ctx, "get_task")
	require.NoError(t, err)
	assert.Equal(t, "taskId", again.Parameters[0].Name)
	assert.True(t, again.Parameters[0].Required)
	assert.Equal(t, []string{"Tasks"}, again.Tags)
}
