package openapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/i2y/rocketlane-mcp/internal/domain"
)

// SchemaValidator checks argument values against the schemas the generator
// read for them. It implements usecase.ArgumentValidator.
//
// Schemas are keyed by method, path template and argument name, which stay
// stable when operation ids are prefixed.
type SchemaValidator struct {
	mu      sync.RWMutex
	schemas map[string]*openapi3.Schema
}

// NewSchemaValidator creates an empty SchemaValidator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{schemas: make(map[string]*openapi3.Schema)}
}

func schemaKey(method, path, param string) string {
	return method + " " + path + "#" + param
}

// Register records the schema of one argument.
func (v *SchemaValidator) Register(method, path, param string, schema *openapi3.Schema) {
	if schema == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.schemas[schemaKey(method, path, param)] = schema
}

// Len returns the number of registered argument schemas.
func (v *SchemaValidator) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.schemas)
}

// ValidateArgument validates value with VisitJSON. Arguments without a
// registered schema accept any value.
func (v *SchemaValidator) ValidateArgument(op domain.Operation, param domain.Parameter, value interface{}) error {
	v.mu.RLock()
	schema := v.schemas[schemaKey(op.Method, op.PathTemplate, param.Name)]
	v.mu.RUnlock()
	if schema == nil {
		return nil
	}

	plain, err := jsonValue(value)
	if err != nil {
		return err
	}
	err = schema.VisitJSON(plain)
	if err == nil {
		return nil
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if ptr := schemaErr.JSONPointer(); len(ptr) > 0 {
			return fmt.Errorf("/%s: %s", strings.Join(ptr, "/"), schemaErr.Reason)
		}
		return errors.New(schemaErr.Reason)
	}
	return err
}

// jsonValue turns caller values (json.Number, typed slices, Go ints) into
// the plain shapes encoding/json produces, which is what VisitJSON expects.
func jsonValue(value interface{}) (interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON: %w", err)
	}
	var plain interface{}
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}
