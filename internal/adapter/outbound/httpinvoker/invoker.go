package httpinvoker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/rocketlane-mcp/internal/domain"
)

const (
	instrumentationName = "github.com/i2y/rocketlane-mcp/internal/adapter/outbound/httpinvoker"

	// DefaultMaxResponseBytes bounds how much of a response body is read.
	DefaultMaxResponseBytes int64 = 10 << 20
)

// ErrResponseTooLarge is wrapped in a TransportError when the response body
// exceeds Options.MaxResponseBytes.
var ErrResponseTooLarge = errors.New("response body exceeds limit")

// Options configures the Invoker.
type Options struct {
	// BaseURL is prefixed to every operation path, e.g. "https://api.rocketlane.com/api".
	BaseURL string
	// Credential is the API key. Empty sends requests without the auth header.
	Credential string
	// Auth names the header that carries Credential.
	Auth domain.AuthScheme
	// MaxResponseBytes bounds the response body; zero means DefaultMaxResponseBytes.
	MaxResponseBytes int64
	// Headers are added to every request.
	Headers map[string]string
}

// Invoker implements the usecase.ToolInvoker interface using standard net/http.
// It is safe for concurrent use.
type Invoker struct {
	client  *http.Client
	baseURL *url.URL
	opts    Options
	tracer  trace.Tracer
	logger  *slog.Logger
}

// New creates a new HTTP Invoker.
func New(client *http.Client, opts Options, logger *slog.Logger) (*Invoker, error) {
	if client == nil {
		client = http.DefaultClient
	}
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %s: %w", opts.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %q", opts.BaseURL)
	}
	if opts.MaxResponseBytes <= 0 {
		opts.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if opts.Auth.Header == "" {
		opts.Auth.Header = "api-key"
	}
	return &Invoker{
		client:  client,
		baseURL: base,
		opts:    opts,
		tracer:  otel.Tracer(instrumentationName),
		logger:  logger.With("component", "http_invoker"),
	}, nil
}

// Invoke executes exactly one HTTP request for inv and returns the decoded
// response body: JSON values with numbers kept as json.Number, nil for an
// empty body, or a domain.TextBody when the body is not JSON.
func (i *Invoker) Invoke(ctx context.Context, inv domain.Invocation) (interface{}, error) {
	op := inv.Operation
	target := i.buildURL(op.PathTemplate, inv.PathValues, inv.Query)
	log := i.logger.With(
		slog.String("operation", op.ID),
		slog.String("method", op.Method),
		slog.String("url", redactedURL(target)),
	)

	ctx, span := i.tracer.Start(ctx, "rocketlane "+op.ID,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", op.Method),
			attribute.String("url.template", op.PathTemplate),
			attribute.String("rocketlane.operation", op.ID),
		))
	defer span.End()

	var requestBody io.Reader
	if inv.Body != nil {
		jsonData, err := json.Marshal(inv.Body)
		if err != nil {
			log.Error("Failed to marshal request body", slog.Any("error", err))
			span.SetStatus(codes.Error, "marshal body")
			return nil, &domain.InvalidParameterError{Operation: op.ID, Parameter: "body", Reason: err.Error()}
		}
		requestBody = bytes.NewReader(jsonData)
		log.Debug("Prepared request body", slog.Int("size", len(jsonData)))
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, target, requestBody)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, &domain.TransportError{Method: op.Method, URL: redactedURL(target), Err: err}
	}
	i.setHeaders(req, requestBody != nil, op.ContentType)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	log.Debug("Executing HTTP request")
	resp, err := i.client.Do(req)
	if err != nil {
		log.Error("HTTP request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, &domain.TransportError{Method: op.Method, URL: redactedURL(target), Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log = log.With(slog.Int("status_code", resp.StatusCode))

	respBodyBytes, err := readLimited(resp.Body, i.opts.MaxResponseBytes)
	if err != nil {
		log.Error("Failed to read response body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, &domain.TransportError{Method: op.Method, URL: redactedURL(target), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("Received non-success status code", slog.String("response_body", truncate(respBodyBytes, 512)))
		span.SetStatus(codes.Error, resp.Status)
		return nil, &domain.RemoteError{StatusCode: resp.StatusCode, Body: respBodyBytes}
	}

	log.Debug("Received HTTP response", slog.Int("size", len(respBodyBytes)))
	return decodeBody(resp.StatusCode, respBodyBytes), nil
}

// buildURL joins the base path with the operation path, substituting escaped
// path values, and appends the query.
func (i *Invoker) buildURL(pathTemplate string, values map[string]string, query url.Values) string {
	path := pathTemplate
	for name, v := range values {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(v))
	}
	target := strings.TrimSuffix(i.baseURL.String(), "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func (i *Invoker) setHeaders(req *http.Request, hasBody bool, contentType string) {
	for key, value := range i.opts.Headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if hasBody {
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	if i.opts.Credential != "" {
		value := i.opts.Credential
		if i.opts.Auth.Prefix != "" {
			value = i.opts.Auth.Prefix + " " + value
		}
		req.Header.Set(i.opts.Auth.Header, value)
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, limit)
	}
	return data, nil
}

func decodeBody(status int, data []byte) interface{} {
	if status == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var result interface{}
	if err := dec.Decode(&result); err != nil || dec.More() {
		return domain.TextBody(data)
	}
	return result
}

// redactedURL drops the query string, which may carry user data, from logs
// and errors.
func redactedURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
