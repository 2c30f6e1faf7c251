package domain

import (
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"
)

// Location says where a parameter is encoded in the HTTP request.
type Location string

const (
	LocationPath  Location = "path"
	LocationQuery Location = "query"
	LocationBody  Location = "body"
)

// ParamType is the JSON type a parameter value must have.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
	TypeAny     ParamType = ""
)

// Parameter declares one named argument of an Operation.
type Parameter struct {
	// Name is the argument name callers use.
	Name string
	// WireName is the name sent to the API. It differs from Name for dotted
	// filter parameters ("status.eq" is exposed as "status_eq") and for body
	// fields that collide with a path or query parameter ("taskId_body").
	WireName    string
	Location    Location
	Required    bool
	Type        ParamType
	ItemType    ParamType // element type when Type is TypeArray
	Description string
	Enum        []interface{}
	// WholeBody marks a body parameter whose value is the entire request body
	// rather than one field of a JSON object.
	WholeBody bool
}

// Operation describes one remote API endpoint. Operations are built once from
// the API schema and never mutated afterwards.
type Operation struct {
	ID           string
	Method       string
	PathTemplate string
	Summary      string
	Description  string
	Tags         []string
	Parameters   []Parameter
	// HasBody reports whether the operation declares a request body.
	HasBody     bool
	ContentType string
}

var placeholderPattern = regexp.MustCompile(`\{([^{}/]+)\}`)

// Placeholders returns the placeholder names of the path template in order.
func (o *Operation) Placeholders() []string {
	matches := placeholderPattern.FindAllStringSubmatch(o.PathTemplate, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// ParamsIn returns the parameters declared at the given location.
func (o *Operation) ParamsIn(loc Location) []Parameter {
	var out []Parameter
	for _, p := range o.Parameters {
		if p.Location == loc {
			out = append(out, p)
		}
	}
	return out
}

// Param looks a parameter up by argument name.
func (o *Operation) Param(name string) (Parameter, bool) {
	for _, p := range o.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// RequiredParams returns the argument names that must be supplied.
func (o *Operation) RequiredParams() []string {
	var names []string
	for _, p := range o.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// HasTag reports whether the operation carries any of the given tags.
func (o *Operation) HasTag(tags ...string) bool {
	for _, t := range tags {
		if slices.ContainsFunc(o.Tags, func(own string) bool { return strings.EqualFold(own, t) }) {
			return true
		}
	}
	return false
}

// ReadOnly reports whether the operation only reads remote state.
func (o *Operation) ReadOnly() bool {
	return o.Method == http.MethodGet || o.Method == http.MethodHead
}

// Validate checks that the path template placeholders are exactly the
// path-located parameters and that argument names are unique.
func (o *Operation) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("operation %s %s has no id", o.Method, o.PathTemplate)
	}
	seen := make(map[string]struct{}, len(o.Parameters))
	for _, p := range o.Parameters {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("operation %s: duplicate parameter %q", o.ID, p.Name)
		}
		seen[p.Name] = struct{}{}
	}

	placeholders := o.Placeholders()
	pathParams := make(map[string]struct{})
	for _, p := range o.ParamsIn(LocationPath) {
		pathParams[p.WireName] = struct{}{}
	}
	for _, name := range placeholders {
		if _, ok := pathParams[name]; !ok {
			return fmt.Errorf("operation %s: placeholder {%s} has no path parameter", o.ID, name)
		}
		delete(pathParams, name)
	}
	for name := range pathParams {
		return fmt.Errorf("operation %s: path parameter %q does not appear in %s", o.ID, name, o.PathTemplate)
	}
	return nil
}
