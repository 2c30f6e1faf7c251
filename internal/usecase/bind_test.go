package usecase_test

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i2y/rocketlane-mcp/internal/domain"
	"github.com/i2y/rocketlane-mcp/internal/usecase"
)

var (
	updateTaskOp = domain.Operation{
		ID:           "update_task",
		Method:       "PUT",
		PathTemplate: "/1.0/tasks/{taskId}",
		HasBody:      true,
		Parameters: []domain.Parameter{
			{Name: "taskId", WireName: "taskId", Location: domain.LocationPath, Required: true, Type: domain.TypeString},
			{Name: "includeFields", WireName: "includeFields", Location: domain.LocationQuery, Type: domain.TypeArray, ItemType: domain.TypeString},
			{Name: "includeAllFields", WireName: "includeAllFields", Location: domain.LocationQuery, Type: domain.TypeBoolean},
			{Name: "taskId_body", WireName: "taskId", Location: domain.LocationBody, Type: domain.TypeInteger},
			{Name: "taskName", WireName: "taskName", Location: domain.LocationBody, Type: domain.TypeString},
			{Name: "effortInMinutes", WireName: "effortInMinutes", Location: domain.LocationBody, Type: domain.TypeInteger},
		},
	}
	getAllUsersOp = domain.Operation{
		ID:           "get_all_users",
		Method:       "GET",
		PathTemplate: "/1.0/users",
		Parameters: []domain.Parameter{
			{Name: "pageSize", WireName: "pageSize", Location: domain.LocationQuery, Type: domain.TypeNumber},
			{Name: "firstName_eq", WireName: "firstName.eq", Location: domain.LocationQuery, Type: domain.TypeString},
		},
	}
	assignPlaceholdersOp = domain.Operation{
		ID:           "assign_placeholders",
		Method:       "POST",
		PathTemplate: "/1.0/projects/{projectId}/assign-placeholders",
		HasBody:      true,
		Parameters: []domain.Parameter{
			{Name: "projectId", WireName: "projectId", Location: domain.LocationPath, Required: true, Type: domain.TypeInteger},
			{Name: "items", WireName: "items", Location: domain.LocationBody, Required: true, Type: domain.TypeArray, ItemType: domain.TypeObject, WholeBody: true},
		},
	}
)

func TestBindArguments(t *testing.T) {
	tests := []struct {
		name      string
		op        domain.Operation
		args      map[string]interface{}
		wantPath  map[string]string
		wantQuery url.Values
		wantBody  interface{}
	}{
		{
			name:      "Path, query and renamed body field",
			op:        updateTaskOp,
			args:      map[string]interface{}{"taskId": "42", "includeAllFields": true, "taskId_body": 42.0, "taskName": "Kickoff"},
			wantPath:  map[string]string{"taskId": "42"},
			wantQuery: url.Values{"includeAllFields": {"true"}},
			wantBody:  map[string]interface{}{"taskId": 42.0, "taskName": "Kickoff"},
		},
		{
			name:      "Numeric id for string path parameter",
			op:        updateTaskOp,
			args:      map[string]interface{}{"taskId": 1001.0},
			wantPath:  map[string]string{"taskId": "1001"},
			wantQuery: url.Values{},
			wantBody:  map[string]interface{}{},
		},
		{
			name:      "Query array repeats the key",
			op:        updateTaskOp,
			args:      map[string]interface{}{"taskId": "7", "includeFields": []interface{}{"status", "assignees"}},
			wantPath:  map[string]string{"taskId": "7"},
			wantQuery: url.Values{"includeFields": {"status", "assignees"}},
			wantBody:  map[string]interface{}{},
		},
		{
			name:      "Null optional values are dropped",
			op:        updateTaskOp,
			args:      map[string]interface{}{"taskId": "7", "taskName": nil, "includeAllFields": nil},
			wantPath:  map[string]string{"taskId": "7"},
			wantQuery: url.Values{},
			wantBody:  map[string]interface{}{},
		},
		{
			name:      "Dotted filter uses wire name",
			op:        getAllUsersOp,
			args:      map[string]interface{}{"firstName_eq": "Ada", "pageSize": json.Number("50")},
			wantPath:  map[string]string{},
			wantQuery: url.Values{"firstName.eq": {"Ada"}, "pageSize": {"50"}},
		},
		{
			name: "Whole array body",
			op:   assignPlaceholdersOp,
			args: map[string]interface{}{
				"projectId": json.Number("9"),
				"items":     []interface{}{map[string]interface{}{"placeholderId": 1.0, "userId": 2.0}},
			},
			wantPath:  map[string]string{"projectId": "9"},
			wantQuery: url.Values{},
			wantBody:  []interface{}{map[string]interface{}{"placeholderId": 1.0, "userId": 2.0}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv, err := usecase.BindArguments(tc.op, tc.args, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.op.ID, inv.Operation.ID)
			assert.Equal(t, tc.wantPath, inv.PathValues)
			assert.Equal(t, tc.wantQuery, inv.Query)
			assert.Equal(t, tc.wantBody, inv.Body)
		})
	}
}

func TestBindArguments_Errors(t *testing.T) {
	tests := []struct {
		name        string
		op          domain.Operation
		args        map[string]interface{}
		wantMissing bool
		wantMsg     string
	}{
		{
			name:        "Missing path parameter",
			op:          updateTaskOp,
			args:        map[string]interface{}{"taskName": "x"},
			wantMissing: true,
			wantMsg:     "missing required parameter 'taskId' for update_task",
		},
		{
			name:        "Null required parameter",
			op:          updateTaskOp,
			args:        map[string]interface{}{"taskId": nil},
			wantMissing: true,
		},
		{
			name:        "Empty path value",
			op:          updateTaskOp,
			args:        map[string]interface{}{"taskId": ""},
			wantMissing: true,
		},
		{
			name:        "Missing whole body",
			op:          assignPlaceholdersOp,
			args:        map[string]interface{}{"projectId": 9.0},
			wantMissing: true,
		},
		{
			name:    "Unknown parameter",
			op:      updateTaskOp,
			args:    map[string]interface{}{"taskId": "1", "bogus": 1.0},
			wantMsg: "invalid parameter 'bogus' for update_task: unknown parameter",
		},
		{
			name:    "Object in a URL",
			op:      getAllUsersOp,
			args:    map[string]interface{}{"pageSize": map[string]interface{}{}},
			wantMsg: "invalid parameter 'pageSize' for get_all_users: cannot encode map[string]interface {} in a URL",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := usecase.BindArguments(tc.op, tc.args, nil)
			require.Error(t, err)
			if tc.wantMissing {
				var missing *domain.MissingParameterError
				assert.ErrorAs(t, err, &missing)
			} else {
				var invalid *domain.InvalidParameterError
				assert.ErrorAs(t, err, &invalid)
			}
			if tc.wantMsg != "" {
				assert.EqualError(t, err, tc.wantMsg)
			}
		})
	}
}

// MockArgumentValidator is a mock implementation of the ArgumentValidator interface.
type MockArgumentValidator struct {
	mock.Mock
}

func (m *MockArgumentValidator) ValidateArgument(op domain.Operation, param domain.Parameter, value interface{}) error {
	args := m.Called(op.ID, param.Name, value)
	return args.Error(0)
}

func TestBindArguments_Validator(t *testing.T) {
	t.Run("rejection becomes InvalidParameterError", func(t *testing.T) {
		validator := new(MockArgumentValidator)
		validator.On("ValidateArgument", "update_task", "taskId", "1").Return(nil).Once()
		validator.On("ValidateArgument", "update_task", "effortInMinutes", 1.5).
			Return(errors.New("value must be an integer")).Once()

		_, err := usecase.BindArguments(updateTaskOp, map[string]interface{}{"taskId": "1", "effortInMinutes": 1.5}, validator)
		var invalid *domain.InvalidParameterError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "effortInMinutes", invalid.Parameter)
		assert.EqualError(t, err, "invalid parameter 'effortInMinutes' for update_task: value must be an integer")
		validator.AssertExpectations(t)
	})

	t.Run("unquoted id is validated as a string", func(t *testing.T) {
		validator := new(MockArgumentValidator)
		validator.On("ValidateArgument", "update_task", "taskId", "1001").Return(nil).Once()

		inv, err := usecase.BindArguments(updateTaskOp, map[string]interface{}{"taskId": json.Number("1001")}, validator)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"taskId": "1001"}, inv.PathValues)
		validator.AssertExpectations(t)
	})

	t.Run("absent and null values are not validated", func(t *testing.T) {
		validator := new(MockArgumentValidator)
		validator.On("ValidateArgument", "update_task", "taskId", "7").Return(nil).Once()

		_, err := usecase.BindArguments(updateTaskOp, map[string]interface{}{"taskId": "7", "taskName": nil}, validator)
		require.NoError(t, err)
		validator.AssertExpectations(t)
		validator.AssertNumberOfCalls(t, "ValidateArgument", 1)
	})

	t.Run("missing parameter is reported before validation", func(t *testing.T) {
		validator := new(MockArgumentValidator)

		_, err := usecase.BindArguments(updateTaskOp, map[string]interface{}{"taskName": "x"}, validator)
		var missing *domain.MissingParameterError
		require.ErrorAs(t, err, &missing)
		validator.AssertNotCalled(t, "ValidateArgument", mock.Anything, mock.Anything, mock.Anything)
	})
}
