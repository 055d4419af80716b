package dropmail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/dropterm/internal/model"
	"github.com/nhle/dropterm/internal/source"
	"github.com/nhle/dropterm/internal/status"
)

// maxErrorBody bounds the response excerpt kept in an HTTPError.
const maxErrorBody = 512

// defaultMaxBodySize bounds a response body, raw message downloads
// included.
const defaultMaxBodySize = 32 << 20

// ErrResponseTooLarge is returned instead of a truncated body.
var ErrResponseTooLarge = errors.New("response exceeds size limit")

// Client is a thin GraphQL-over-HTTP client for the dropmail API. It
// POSTs query/variables pairs, optionally through a CORS relay, and
// classifies every failure as a transport, HTTP or payload error.
// It never retries; callers wait for the next poll or user action.
type Client struct {
	endpoint   string
	baseURL    string
	httpClient *http.Client
	reporter   status.Reporter
	maxBody    int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxBodySize bounds the size of any response body.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithReporter sets the status reporter notified on every failure.
func WithReporter(r status.Reporter) Option {
	return func(c *Client) {
		if r != nil {
			c.reporter = r
		}
	}
}

// NewClient creates a new dropmail client from the API configuration.
func NewClient(cfg model.APIConfig, opts ...Option) *Client {
	c := &Client{
		endpoint: Endpoint(cfg),
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		reporter: status.Discard,
		maxBody:  defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint builds the URL requests are POSTed to. The token is the last
// path element of the GraphQL URL; a relay prefix receives the whole
// target query-escaped.
func Endpoint(cfg model.APIConfig) string {
	target := strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ClientToken != "" {
		target += "/" + url.PathEscape(cfg.ClientToken)
	}
	if cfg.RelayURL == "" {
		return target
	}
	return cfg.RelayURL + url.QueryEscape(target)
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Do sends one GraphQL operation and unmarshals its data object into
// out. op names the operation in errors and logs.
func (c *Client) Do(
	ctx context.Context,
	op string,
	query string,
	variables map[string]any,
	out any,
) error {
	err := c.do(ctx, op, query, variables, out)
	if err != nil {
		c.fail(op, err)
	}
	return err
}

func (c *Client) do(
	ctx context.Context,
	op string,
	query string,
	variables map[string]any,
	out any,
) error {
	if variables == nil {
		variables = map[string]any{}
	}

	data, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, bytes.NewReader(data),
	)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	body, err := c.roundTrip(op, req)
	if err != nil {
		return err
	}

	var resp gqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &source.PayloadError{Op: op, Reason: "decoding response", Err: err}
	}

	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		if len(resp.Errors) > 0 {
			return &source.PayloadError{Op: op, Reason: joinErrors(resp.Errors)}
		}
		return &source.PayloadError{Op: op, Reason: "response has no data"}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Data, out); err != nil {
		return &source.PayloadError{Op: op, Reason: "decoding data", Err: err}
	}

	return nil
}

// roundTrip executes req and returns the body of a 2xx response.
func (c *Client) roundTrip(op string, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &source.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &source.TransportError{Op: op, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		return nil, &source.TransportError{Op: op, Err: ErrResponseTooLarge}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := strings.TrimSpace(string(body))
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &source.HTTPError{Op: op, StatusCode: resp.StatusCode, Body: excerpt}
	}

	return body, nil
}

// Download fetches a raw message. Relative links are resolved against
// the API host. Downloads go direct, never through the relay.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	const op = "download"

	target, err := c.resolve(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	body, err := c.roundTrip(op, req)
	if err != nil {
		c.fail(op, err)
		return nil, err
	}
	return body, nil
}

func (c *Client) resolve(rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("message has no download link")
	}

	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing download link %q: %w", rawURL, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url %q: %w", c.baseURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// fail logs err and flips the shared indicator to the error state.
func (c *Client) fail(op string, err error) {
	log.Printf("dropmail %s failed (%s): %v", op, source.Kind(err), err)
	c.reporter.Report(status.Error, err.Error())
}

func joinErrors(errs []gqlError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
