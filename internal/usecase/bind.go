package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/i2y/rocketlane-mcp/internal/domain"
)

// BindArguments checks caller arguments against the operation's parameter
// declarations and splits them into path values, query values and body.
// Null values count as absent. Present values are checked by validator; a nil
// validator accepts any value. Nothing here touches the network.
func BindArguments(op domain.Operation, args map[string]interface{}, validator ArgumentValidator) (domain.Invocation, error) {
	for name := range args {
		if _, ok := op.Param(name); !ok {
			return domain.Invocation{}, &domain.InvalidParameterError{Operation: op.ID, Parameter: name, Reason: "unknown parameter"}
		}
	}

	inv := domain.Invocation{
		Operation:  op,
		PathValues: make(map[string]string),
		Query:      url.Values{},
	}
	// An object body is sent even when empty, matching what the API expects
	// for PUT/POST calls without fields.
	var fields map[string]interface{}
	if op.HasBody && !hasWholeBody(op) {
		fields = make(map[string]interface{})
	}

	for _, p := range op.Parameters {
		val, present := args[p.Name]
		if present && val == nil {
			present = false
		}
		if !present {
			if p.Required {
				return domain.Invocation{}, &domain.MissingParameterError{Operation: op.ID, Parameter: p.Name}
			}
			continue
		}

		val = coerce(p, val)
		if validator != nil {
			if err := validator.ValidateArgument(op, p, val); err != nil {
				return domain.Invocation{}, &domain.InvalidParameterError{Operation: op.ID, Parameter: p.Name, Reason: err.Error()}
			}
		}

		switch p.Location {
		case domain.LocationPath:
			s, err := formatScalar(val)
			if err != nil {
				return domain.Invocation{}, &domain.InvalidParameterError{Operation: op.ID, Parameter: p.Name, Reason: err.Error()}
			}
			if s == "" {
				return domain.Invocation{}, &domain.MissingParameterError{Operation: op.ID, Parameter: p.Name}
			}
			inv.PathValues[p.WireName] = s
		case domain.LocationQuery:
			values, err := formatQuery(val)
			if err != nil {
				return domain.Invocation{}, &domain.InvalidParameterError{Operation: op.ID, Parameter: p.Name, Reason: err.Error()}
			}
			for _, v := range values {
				inv.Query.Add(p.WireName, v)
			}
		case domain.LocationBody:
			if p.WholeBody {
				inv.Body = val
				continue
			}
			if fields == nil {
				fields = make(map[string]interface{})
			}
			fields[p.WireName] = val
		}
	}

	if inv.Body == nil && fields != nil {
		inv.Body = fields
	}
	return inv, nil
}

func hasWholeBody(op domain.Operation) bool {
	for _, p := range op.Parameters {
		if p.WholeBody {
			return true
		}
	}
	return false
}

// coerce renders numbers passed for string-typed path and query parameters
// as strings, since ids are often passed unquoted.
func coerce(p domain.Parameter, val interface{}) interface{} {
	if p.Type != domain.TypeString || p.Location == domain.LocationBody || !isNumber(val) {
		return val
	}
	s, err := formatScalar(val)
	if err != nil {
		return val
	}
	return s
}

func isNumber(val interface{}) bool {
	switch v := val.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

// formatScalar renders a scalar the way it appears in a URL.
func formatScalar(val interface{}) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		return v.String(), nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return formatScalar(float64(v))
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	}
	return "", fmt.Errorf("cannot encode %T in a URL", val)
}

// formatQuery renders a query value; arrays become repeated keys.
func formatQuery(val interface{}) ([]string, error) {
	switch v := val.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := formatScalar(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	s, err := formatScalar(val)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}
