package domain

import "net/url"

// Invocation is one bound call of an Operation: arguments already validated
// and split by location. It lives for the duration of a single call.
type Invocation struct {
	Operation Operation
	// PathValues maps placeholder names to their unescaped values.
	PathValues map[string]string
	// Query holds query-string values keyed by wire name.
	Query url.Values
	// Body is the value serialized as the JSON request body, nil when there is none.
	Body interface{}
}

// TextBody is a 2xx response body that is not JSON, returned verbatim.
type TextBody string
