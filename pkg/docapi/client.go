package docapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/feichai0017/document-client/internal/models"
	"github.com/feichai0017/document-client/pkg/converters"
	"github.com/feichai0017/document-client/pkg/logger"
)

const (
	defaultHttpTimeout        = 60 * time.Second
	defaultHttpConnectTimeout = 5 * time.Second
	defaultHttpTlsTimeout     = 5 * time.Second

	// responses larger than this are rejected as malformed
	maxResponseBytes = 16 << 20
)

var (
	// ErrNotFound matches a 404 from the document service.
	ErrNotFound = errors.New("document not found")
	// ErrMalformedResponse matches a response body that cannot be decoded.
	ErrMalformedResponse = converters.ErrMalformed
)

// StatusError is returned for every non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// DocumentAPI is the transport the document store fetches through.
type DocumentAPI interface {
	GetDocument(ctx context.Context, id string) (*models.DocumentEnvelope, error)
	ListBriefs(ctx context.Context, userID string) ([]models.DocumentBrief, error)
}

// Settings tunes the HTTP client.
type Settings struct {
	Timeout        time.Duration
	ConnectTimeout time.Duration
	TlsTimeout     time.Duration
	UserAgent      string
}

func DefaultSettings() *Settings {
	return &Settings{
		Timeout:        defaultHttpTimeout,
		ConnectTimeout: defaultHttpConnectTimeout,
		TlsTimeout:     defaultHttpTlsTimeout,
		UserAgent:      "document-client/1",
	}
}

// Client talks to the document service REST endpoints.
type Client struct {
	baseURL   string
	http      *http.Client
	converter converters.DocumentConverter
	settings  *Settings
	logger    logger.Logger
}

var _ DocumentAPI = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithConverter replaces the default JSON converter.
func WithConverter(c converters.DocumentConverter) Option {
	return func(cl *Client) {
		cl.converter = c
	}
}

func NewClient(baseURL string, settings *Settings, log logger.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}
	if settings == nil {
		settings = DefaultSettings()
	}
	if log == nil {
		log = logger.NewNop()
	}

	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		http:      defaultClient(settings),
		converter: converters.NewJSONConverter(nil),
		settings:  settings,
		logger:    log.Named("docapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func defaultClient(settings *Settings) *http.Client {
	dialer := &net.Dialer{
		Timeout: settings.ConnectTimeout,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: settings.TlsTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   settings.Timeout,
	}
}

// GetDocument resolves GET /api/v1/documents/{id}.
func (c *Client) GetDocument(ctx context.Context, id string) (*models.DocumentEnvelope, error) {
	endpoint := fmt.Sprintf("%s/api/v1/documents/%s", c.baseURL, url.PathEscape(id))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	env, err := c.converter.DecodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return env, nil
}

// ListBriefs resolves GET /api/v1/documents/?user_id={id}.
func (c *Client) ListBriefs(ctx context.Context, userID string) ([]models.DocumentBrief, error) {
	endpoint := fmt.Sprintf("%s/api/v1/documents/?%s", c.baseURL, url.Values{"user_id": {userID}}.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	briefs, err := c.converter.DecodeBriefs(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode briefs: %w", err)
	}
	return briefs, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.settings.UserAgent != "" {
		req.Header.Set("User-Agent", c.settings.UserAgent)
	}

	start := time.Now()
	r, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", endpoint, err)
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	c.logger.Debug("document api response",
		logger.String("url", endpoint),
		logger.Int("status", r.StatusCode),
		logger.Duration("elapsed", time.Since(start)),
	)

	if r.StatusCode < 200 || r.StatusCode > 299 {
		return nil, &StatusError{
			Method:     http.MethodGet,
			URL:        endpoint,
			StatusCode: r.StatusCode,
			Body:       strings.TrimSpace(string(truncate(body, 512))),
		}
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("%w: response from %s exceeds %d bytes", ErrMalformedResponse, endpoint, maxResponseBytes)
	}

	return body, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
