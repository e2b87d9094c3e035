package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fsyj123/knowledge-retrive/internal/platform/errors"
	"github.com/fsyj123/knowledge-retrive/internal/platform/timeouts"
)

// defaultBaseURL is the dataset API host. The per-dataset retrieve endpoint
// hangs off /v1/datasets/{id}/retrieve.
const defaultBaseURL = "https://api.dify.ai"

// tracerName identifies spans emitted by the retrieval client.
const tracerName = "github.com/fsyj123/knowledge-retrive/internal/knowledge"

// retrieveRequest is the JSON body of a dataset retrieval call.
type retrieveRequest struct {
	Query string `json:"query"`
}

// Client issues authenticated retrieval queries against the dataset API.
// It is safe for concurrent use; every query is self-contained.
type Client struct {
	httpClient *http.Client
	baseURL    string
	resolve    func() (Credentials, error)
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the dataset API host (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCredentialResolver overrides credential resolution (used by tests).
func WithCredentialResolver(resolve func() (Credentials, error)) Option {
	return func(c *Client) {
		c.resolve = resolve
	}
}

// NewClient creates a retrieval client with the fixed upstream timeout and an
// instrumented transport.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   timeouts.Retrieve,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: defaultBaseURL,
		resolve: ResolveCredentials,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query executes one retrieval query against the given dataset and returns
// the normalized result text. The query must contain at least one
// non-whitespace character; validation happens before any network activity.
// A single failed attempt is final.
func (c *Client) Query(ctx context.Context, datasetID, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errors.New(errors.CodeQueryEmpty, "query text must not be empty")
	}

	creds, err := c.resolve()
	if err != nil {
		return "", err
	}

	ctx, span := c.tracer.Start(ctx, "knowledge.retrieve",
		trace.WithAttributes(attribute.String("knowledge.dataset_id", datasetID)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, timeouts.Retrieve)
	defer cancel()

	body, err := json.Marshal(retrieveRequest{Query: query})
	if err != nil {
		return "", fmt.Errorf("encode retrieval request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/datasets/%s/retrieve", c.baseURL, datasetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build retrieval request: %w", err)
	}
	for key, value := range creds.Headers() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.fail(span, errors.Wrap(errors.CodeUpstreamTransport,
			fmt.Sprintf("reach retrieval service for dataset %s", datasetID), err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.fail(span, errors.Wrap(errors.CodeUpstreamTransport,
			"read retrieval response", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", c.fail(span, errors.WithMetadata(errors.CodeUpstreamStatus,
			fmt.Sprintf("retrieval service returned status %d", resp.StatusCode),
			map[string]string{
				"status": strconv.Itoa(resp.StatusCode),
				"body":   string(payload),
			}))
	}

	if !gjson.ValidBytes(payload) {
		return "", c.fail(span, errors.New(errors.CodeUpstreamDecode,
			"retrieval response is not valid JSON"))
	}

	return Normalize(payload), nil
}

// fail records the error on the query span and returns it unchanged.
func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}
