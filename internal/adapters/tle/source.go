// Package tle downloads the remote TLE document over HTTP.
package tle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/satfinder/internal/domain/model"
	"github.com/okian/satfinder/pkg/logger"
)

// MaxBodyBytes caps how much of a response is read.
const MaxBodyBytes = 50 << 20

const defaultTimeout = 30 * time.Second

// HTTPSource fetches and decodes the TLE JSON document.
type HTTPSource struct {
	client *http.Client
	logger logger.Logger
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithTimeout sets the overall request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithLogger sets the source logger.
func WithLogger(l logger.Logger) Option {
	return func(s *HTTPSource) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewHTTPSource returns a source with a 30s default timeout.
func NewHTTPSource(opts ...Option) *HTTPSource {
	s := &HTTPSource{
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch GETs url and decodes {"satellites": [...]}.
func (s *HTTPSource) Fetch(ctx context.Context, url string) (*model.Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tle data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > MaxBodyBytes {
		return nil, fmt.Errorf("%w: response exceeds %d byte limit", ErrBodyTooLarge, MaxBodyBytes)
	}

	var ds model.Dataset
	if err := json.Unmarshal(body, &ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if ds.Satellites == nil {
		return nil, fmt.Errorf("%w: missing satellites", ErrDecode)
	}

	s.logger.Debug(ctx, "downloaded tle", logger.String("url", url), logger.Int("bytes", len(body)))
	return &ds, nil
}
