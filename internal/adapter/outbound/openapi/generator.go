package openapi

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/i2y/rocketlane-mcp/internal/domain"
)

// BodyNameExtension names the single argument that carries a non-object
// request body (for example an array of assignments).
const BodyNameExtension = "x-body-name"

const defaultBodyName = "requestBody"

// OperationGenerator implements the usecase.OperationGenerator interface for OpenAPI schemas.
type OperationGenerator struct {
	validator *SchemaValidator
	logger    *slog.Logger
}

// NewOperationGenerator creates a new OpenAPI OperationGenerator.
func NewOperationGenerator(logger *slog.Logger) *OperationGenerator {
	return &OperationGenerator{
		validator: NewSchemaValidator(),
		logger:    logger.With("component", "openapi_generator"),
	}
}

// Validator returns the validator holding the argument schemas of every
// operation generated so far.
func (g *OperationGenerator) Validator() *SchemaValidator {
	return g.validator
}

// Generate converts an OpenAPI document into operation descriptors, in path
// then method order so the catalog is stable across runs.
func (g *OperationGenerator) Generate(schema domain.APISchema) (domain.Service, error) {
	log := g.logger.With(slog.String("source", schema.Source))
	log.Info("Generating operations from OpenAPI schema.")

	doc, ok := schema.ParsedData.(*openapi3.T)
	if !ok || doc == nil {
		log.Error("Invalid or missing parsed OpenAPI document in APISchema.")
		return domain.Service{}, fmt.Errorf("invalid or missing parsed OpenAPI document in APISchema")
	}

	baseURL, err := g.determineBaseURL(schema.Source, doc.Servers)
	if err != nil {
		// The base URL can still come from configuration.
		log.Warn("No usable server URL in OpenAPI document.", slog.Any("error", err))
	}

	service := domain.Service{
		BaseURL: baseURL,
		Auth:    authScheme(doc),
	}
	if doc.Info != nil {
		service.Name = doc.Info.Title
	}

	if doc.Paths == nil {
		return service, fmt.Errorf("OpenAPI document has no paths")
	}
	paths := doc.Paths.Map()
	pathKeys := make([]string, 0, len(paths))
	for p := range paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	skippedCount := 0
	for _, path := range pathKeys {
		pathItem := paths[path]
		if pathItem == nil {
			continue
		}
		ops := pathItem.Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		sort.Strings(methods)

		for _, method := range methods {
			operation := ops[method]
			if operation == nil {
				continue
			}
			log := log.With(slog.String("path", path), slog.String("method", method))

			op, err := g.generateOperation(log, path, method, pathItem.Parameters, operation)
			if err != nil {
				log.Warn("Skipping operation.", slog.Any("error", err))
				skippedCount++
				continue
			}
			service.Operations = append(service.Operations, op)
			log.Debug("Generated operation.", slog.String("tool_name", op.ID))
		}
	}

	log.Info("Finished generating operations from OpenAPI schema.",
		slog.Int("generated_count", len(service.Operations)),
		slog.Int("skipped_count", skippedCount))
	return service, nil
}

func (g *OperationGenerator) generateOperation(log *slog.Logger, path, method string, shared openapi3.Parameters, operation *openapi3.Operation) (domain.Operation, error) {
	op := domain.Operation{
		ID:           generateOperationID(path, method, operation),
		Method:       strings.ToUpper(method),
		PathTemplate: path,
		Summary:      strings.TrimSpace(operation.Summary),
		Description:  strings.TrimSpace(operation.Description),
		Tags:         append([]string(nil), operation.Tags...),
	}

	schemas := make(map[string]*openapi3.Schema)
	params, err := g.convertParameters(log, mergeParameters(shared, operation.Parameters), schemas)
	if err != nil {
		return domain.Operation{}, err
	}
	op.Parameters = params

	bodyParams, contentType, hasBody, err := g.convertRequestBody(log, operation.RequestBody, params, schemas)
	if err != nil {
		return domain.Operation{}, err
	}
	op.Parameters = append(op.Parameters, bodyParams...)
	op.HasBody = hasBody
	op.ContentType = contentType

	if err := op.Validate(); err != nil {
		return domain.Operation{}, err
	}
	for name, schema := range schemas {
		g.validator.Register(op.Method, op.PathTemplate, name, schema)
	}
	return op, nil
}

// mergeParameters applies operation-level parameters over path-level ones.
func mergeParameters(shared, own openapi3.Parameters) openapi3.Parameters {
	if len(shared) == 0 {
		return own
	}
	merged := make(openapi3.Parameters, 0, len(shared)+len(own))
	for _, s := range shared {
		if s == nil || s.Value == nil {
			continue
		}
		if own.GetByInAndName(s.Value.In, s.Value.Name) == nil {
			merged = append(merged, s)
		}
	}
	return append(merged, own...)
}

// convertParameters maps path and query parameters to declarations. Header
// and cookie parameters are not tool inputs.
func (g *OperationGenerator) convertParameters(log *slog.Logger, params openapi3.Parameters, schemas map[string]*openapi3.Schema) ([]domain.Parameter, error) {
	var out []domain.Parameter
	for _, paramRef := range params {
		if paramRef == nil || paramRef.Value == nil {
			continue
		}
		param := paramRef.Value

		var loc domain.Location
		switch param.In {
		case openapi3.ParameterInPath:
			loc = domain.LocationPath
		case openapi3.ParameterInQuery:
			loc = domain.LocationQuery
		default:
			log.Debug("Ignoring non path/query parameter.", slog.String("param_name", param.Name), slog.String("param_in", param.In))
			continue
		}

		p := domain.Parameter{
			Name:        argumentName(param.Name),
			WireName:    param.Name,
			Location:    loc,
			Required:    param.Required || loc == domain.LocationPath,
			Description: strings.TrimSpace(param.Description),
		}
		applySchema(&p, param.Schema)
		recordSchema(schemas, p.Name, param.Schema)
		out = append(out, p)
	}
	return out, nil
}

// convertRequestBody maps the JSON request body. Object bodies contribute one
// parameter per property; a property whose name is already taken by a path
// or query parameter is exposed as "<name>_body". Any other body type becomes
// a single whole-body parameter.
func (g *OperationGenerator) convertRequestBody(log *slog.Logger, requestBody *openapi3.RequestBodyRef, existing []domain.Parameter, schemas map[string]*openapi3.Schema) ([]domain.Parameter, string, bool, error) {
	if requestBody == nil || requestBody.Value == nil || requestBody.Value.Content == nil {
		return nil, "", false, nil
	}
	body := requestBody.Value

	jsonContent := body.Content.Get("application/json")
	if jsonContent == nil {
		for contentType := range body.Content {
			return nil, "", false, fmt.Errorf("unsupported request body content type %q", contentType)
		}
		return nil, "", false, nil
	}

	taken := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		taken[p.Name] = struct{}{}
	}

	var schema *openapi3.Schema
	if jsonContent.Schema != nil {
		schema = jsonContent.Schema.Value
	}

	if schema == nil || schemaType(schema) != "object" || body.Extensions[BodyNameExtension] != nil {
		name := defaultBodyName
		if ext, ok := body.Extensions[BodyNameExtension].(string); ok && ext != "" {
			name = ext
		}
		if _, clash := taken[name]; clash {
			return nil, "", false, fmt.Errorf("request body argument %q collides with a parameter", name)
		}
		p := domain.Parameter{
			Name:        name,
			WireName:    name,
			Location:    domain.LocationBody,
			Required:    body.Required,
			Description: strings.TrimSpace(body.Description),
			WholeBody:   true,
		}
		applySchema(&p, jsonContent.Schema)
		recordSchema(schemas, p.Name, jsonContent.Schema)
		return []domain.Parameter{p}, "application/json", true, nil
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = struct{}{}
	}
	propNames := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	out := make([]domain.Parameter, 0, len(propNames))
	for _, wire := range propNames {
		propRef := schema.Properties[wire]
		name := argumentName(wire)
		if _, clash := taken[name]; clash {
			log.Debug("Body field collides with a parameter, renaming.", slog.String("field_name", wire))
			name += "_body"
		}
		if _, clash := taken[name]; clash {
			return nil, "", false, fmt.Errorf("body field %q collides with parameter %q", wire, name)
		}
		taken[name] = struct{}{}

		_, isRequired := required[wire]
		p := domain.Parameter{
			Name:     name,
			WireName: wire,
			Location: domain.LocationBody,
			Required: isRequired,
		}
		applySchema(&p, propRef)
		recordSchema(schemas, p.Name, propRef)
		out = append(out, p)
	}
	return out, "application/json", true, nil
}

// applySchema copies type information from a schema onto a parameter.
func applySchema(p *domain.Parameter, ref *openapi3.SchemaRef) {
	if ref == nil || ref.Value == nil {
		return
	}
	s := ref.Value
	p.Type = convertType(schemaType(s))
	if p.Type == domain.TypeArray {
		p.ItemType = domain.TypeAny
		if s.Items != nil && s.Items.Value != nil {
			p.ItemType = convertType(schemaType(s.Items.Value))
		}
	}
	if p.Description == "" {
		p.Description = strings.TrimSpace(s.Description)
	}
	if len(s.Enum) > 0 {
		p.Enum = append([]interface{}(nil), s.Enum...)
	}
}

func recordSchema(schemas map[string]*openapi3.Schema, name string, ref *openapi3.SchemaRef) {
	if ref != nil && ref.Value != nil {
		schemas[name] = ref.Value
	}
}

func schemaType(s *openapi3.Schema) string {
	if s.Type == nil || len(*s.Type) == 0 {
		return ""
	}
	return (*s.Type)[0]
}

func convertType(t string) domain.ParamType {
	switch t {
	case "string":
		return domain.TypeString
	case "integer":
		return domain.TypeInteger
	case "number":
		return domain.TypeNumber
	case "boolean":
		return domain.TypeBoolean
	case "array":
		return domain.TypeArray
	case "object":
		return domain.TypeObject
	default:
		return domain.TypeAny
	}
}

// authScheme reads the credential header from the document's security
// schemes; apiKey-in-header wins, then HTTP bearer.
func authScheme(doc *openapi3.T) domain.AuthScheme {
	if doc.Components == nil {
		return domain.AuthScheme{}
	}
	names := make([]string, 0, len(doc.Components.SecuritySchemes))
	for name := range doc.Components.SecuritySchemes {
		names = append(names, name)
	}
	sort.Strings(names)

	var bearer *domain.AuthScheme
	for _, name := range names {
		ref := doc.Components.SecuritySchemes[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		scheme := ref.Value
		switch {
		case scheme.Type == "apiKey" && scheme.In == "header" && scheme.Name != "":
			return domain.AuthScheme{Header: scheme.Name}
		case scheme.Type == "http" && strings.EqualFold(scheme.Scheme, "bearer") && bearer == nil:
			bearer = &domain.AuthScheme{Header: "Authorization", Prefix: "Bearer"}
		}
	}
	if bearer != nil {
		return *bearer
	}
	return domain.AuthScheme{}
}

// determineBaseURL returns the first HTTP/HTTPS server URL, resolving relative
// URLs against the schema source. Trailing slashes are trimmed.
func (g *OperationGenerator) determineBaseURL(schemaSourceURL string, servers openapi3.Servers) (string, error) {
	if len(servers) == 0 {
		return "", fmt.Errorf("no servers defined in OpenAPI document")
	}

	baseSourceURL, err := url.Parse(schemaSourceURL)
	if err != nil || !baseSourceURL.IsAbs() {
		baseSourceURL = nil
	}

	for _, server := range servers {
		if server == nil || server.URL == "" {
			continue
		}
		parsedServerURL, err := url.Parse(server.URL)
		if err != nil {
			g.logger.Warn("Could not parse server URL, skipping.", slog.String("url", server.URL), slog.Any("error", err))
			continue
		}

		resolvedURL := parsedServerURL
		if !parsedServerURL.IsAbs() {
			if baseSourceURL == nil {
				g.logger.Debug("Cannot resolve relative server URL without an absolute schema source.", slog.String("relative_url", server.URL))
				continue
			}
			resolvedURL = baseSourceURL.ResolveReference(parsedServerURL)
		}

		if (resolvedURL.Scheme == "http" || resolvedURL.Scheme == "https") && resolvedURL.Host != "" {
			return strings.TrimSuffix(resolvedURL.String(), "/"), nil
		}
	}

	return "", fmt.Errorf("no suitable HTTP/HTTPS server URL found or resolvable in OpenAPI document")
}

// generateOperationID uses the operationId, or method and static path
// segments when the document has none.
func generateOperationID(path, method string, op *openapi3.Operation) string {
	if op.OperationID != "" {
		return sanitizeName(op.OperationID)
	}

	nameParts := []string{strings.ToLower(method)}
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" || strings.HasPrefix(part, "{") {
			continue
		}
		nameParts = append(nameParts, sanitizeName(part))
	}
	return strings.Join(nameParts, "_")
}

// argumentName turns a wire name into an argument name: "status.eq" -> "status_eq".
func argumentName(wire string) string {
	return strings.ReplaceAll(wire, ".", "_")
}

// sanitizeName removes characters unsuitable for tool names.
func sanitizeName(name string) string {
	name = strings.ToLower(name)
	replacer := strings.NewReplacer(" ", "_", "-", "_", "/", "_", ".", "_")
	name = replacer.Replace(name)
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	return strings.Trim(name, "_")
}
