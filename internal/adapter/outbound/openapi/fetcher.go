package openapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/i2y/rocketlane-mcp/api"
	"github.com/i2y/rocketlane-mcp/internal/adapter/outbound/github"
	"github.com/i2y/rocketlane-mcp/internal/domain"
)

// GitHubReader reads a file from a github:// source.
type GitHubReader interface {
	FetchFile(ctx context.Context, source string) ([]byte, error)
}

// SchemaFetcher implements the usecase.SchemaFetcher interface for OpenAPI schemas.
type SchemaFetcher struct {
	httpClient *http.Client
	github     GitHubReader
	logger     *slog.Logger
}

// NewSchemaFetcher creates a new OpenAPI SchemaFetcher. gh may be nil, in
// which case github:// sources are rejected.
func NewSchemaFetcher(client *http.Client, gh GitHubReader, logger *slog.Logger) *SchemaFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &SchemaFetcher{
		httpClient: client,
		github:     gh,
		logger:     logger.With("component", "openapi_fetcher"),
	}
}

// Fetch loads an OpenAPI schema. An empty source selects the embedded
// Rocketlane document; otherwise source is an http(s) URL, a github:// URL
// or a local file path.
func (f *SchemaFetcher) Fetch(ctx context.Context, src string) (domain.APISchema, error) {
	name := src
	if name == "" {
		name = api.RocketlaneSource
	}
	log := f.logger.With(slog.String("source", name))
	log.Info("Fetching OpenAPI schema")

	rawData, err := f.read(ctx, log, src)
	if err != nil {
		return domain.APISchema{}, err
	}

	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: true}
	doc, err := loader.LoadFromData(rawData)
	if err != nil {
		log.Error("Failed to parse OpenAPI schema data", slog.Any("error", err))
		return domain.APISchema{}, fmt.Errorf("failed to parse OpenAPI schema from %s: %w", name, err)
	}

	if validateErr := doc.Validate(ctx); validateErr != nil {
		log.Warn("OpenAPI schema validation failed", slog.Any("validation_error", validateErr))
	}

	log.Info("Successfully fetched and parsed OpenAPI schema")
	return domain.APISchema{
		Source:     name,
		Type:       sourceType(src),
		RawData:    rawData,
		ParsedData: doc,
	}, nil
}

func (f *SchemaFetcher) read(ctx context.Context, log *slog.Logger, src string) ([]byte, error) {
	if src == "" {
		log.Debug("Using embedded schema")
		return api.RocketlaneOpenAPI, nil
	}

	if github.IsGitHubURL(src) {
		if f.github == nil {
			return nil, fmt.Errorf("github sources are not enabled: %s", src)
		}
		log.Debug("Fetching from GitHub")
		content, err := f.github.FetchFile(ctx, src)
		if err != nil {
			log.Error("Failed to fetch file from GitHub", slog.Any("error", err))
			return nil, fmt.Errorf("failed to fetch file from GitHub: %w", err)
		}
		return content, nil
	}

	if u, err := url.ParseRequestURI(src); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		log.Debug("Fetching from URL")
		return f.fetchURL(ctx, log, src)
	}

	log.Debug("Assuming local file path")
	fileData, err := os.ReadFile(src)
	if err != nil {
		log.Error("Failed to read schema from file", slog.Any("error", err))
		return nil, fmt.Errorf("failed to read schema from file %s: %w", src, err)
	}
	return fileData, nil
}

func (f *SchemaFetcher) fetchURL(ctx context.Context, log *slog.Logger, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create request for %s: %w", src, err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Error("Failed to fetch schema from URL", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch schema from URL %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("Received non-OK status code from URL", slog.String("status", resp.Status), slog.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("failed to fetch schema from URL %s: status %s", src, resp.Status)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body from URL", slog.Any("error", err))
		return nil, fmt.Errorf("failed to read response body from %s: %w", src, err)
	}
	return bodyBytes, nil
}

func sourceType(src string) domain.SchemaType {
	if github.IsGitHubURL(src) {
		return domain.SchemaTypeGitHub
	}
	return domain.SchemaTypeOpenAPI
}
