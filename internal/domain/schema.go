package domain

// SchemaType defines the type of the source API schema.
type SchemaType string

const (
	SchemaTypeOpenAPI SchemaType = "openapi"
	SchemaTypeGitHub  SchemaType = "github" // OpenAPI documents hosted in a GitHub repository
)

// APISchema represents a fetched API schema before conversion.
// It holds the raw data and metadata about its origin and type.
type APISchema struct {
	// Source indicates the origin of the schema (embedded name, file path or URL).
	Source string
	// Type specifies the kind of schema.
	Type SchemaType
	// RawData holds the unprocessed schema content (JSON or YAML).
	RawData []byte
	// ParsedData holds the schema parsed into a library-specific representation,
	// *openapi3.T for OpenAPI. Kept as interface{} so the domain stays free of
	// parser types; generators type-assert it.
	ParsedData interface{}
}

// AuthScheme describes how the credential is attached to outbound requests.
type AuthScheme struct {
	// Header is the request header carrying the credential (e.g. "api-key", "Authorization").
	Header string
	// Prefix is prepended to the credential value, e.g. "Bearer".
	Prefix string
}

// Service is the result of generating operations from an API schema.
type Service struct {
	Name       string
	BaseURL    string
	Auth       AuthScheme
	Operations []Operation
}
