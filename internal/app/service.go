// Package service orchestrates a satellite query: dataset fetch, parameter
// validation, aggregation and the response envelope.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/okian/satfinder/internal/adapters/predictor"
	"github.com/okian/satfinder/internal/adapters/tle"
	"github.com/okian/satfinder/internal/domain/dataset"
	"github.com/okian/satfinder/internal/domain/envelope"
	"github.com/okian/satfinder/internal/domain/model"
	"github.com/okian/satfinder/internal/domain/params"
	"github.com/okian/satfinder/internal/domain/path"
	"github.com/okian/satfinder/internal/domain/timing"
	"github.com/okian/satfinder/internal/domain/ttl"
	"github.com/okian/satfinder/pkg/logger"
)

// Query variants and API versions.
const (
	QueryTimings = "timings"
	QueryPath    = "path"

	APIVersion1  = "1"
	APIVersion11 = "1.1"

	pathMarker    = "/findstarlinkpath"
	versionPrefix = "/v1.1/"
)

const (
	DefaultSourceURL           = "https://findstarlink.com/data/tle.json"
	DefaultTimingsCacheSeconds = 5 * 60
	DefaultPathCacheSeconds    = 5 * 60
)

const tracerName = "github.com/okian/satfinder/internal/app"

// Request is a transport-neutral inbound query. A nil Query means the
// parameter collection was absent.
type Request struct {
	Path    string
	Query   map[string]string
	Headers map[string]string
}

// Predictor computes both visibility windows and ground tracks.
type Predictor interface {
	timing.Predictor
	path.Predictor
}

// Stats is a point-in-time view of the caches.
type Stats struct {
	Started            bool      `json:"started"`
	DatasetSource      string    `json:"datasetSource,omitempty"`
	DatasetSatellites  int       `json:"datasetSatellites"`
	DatasetActive      int       `json:"datasetActive"`
	DatasetFetchedAt   time.Time `json:"datasetFetchedAt,omitzero"`
	DatasetExpiresAt   time.Time `json:"datasetExpiresAt,omitzero"`
	PathCacheExpiresAt time.Time `json:"pathCacheExpiresAt,omitzero"`
}

// Service answers timings and path queries.
type Service struct {
	mu sync.RWMutex

	// Core components
	datasets *dataset.Cache
	timings  *timing.Aggregator
	paths    *path.Cache

	// Configuration
	sourceURL           string
	source              dataset.Source
	predictor           Predictor
	clock               ttl.Clock
	datasetTTL          time.Duration
	pathTTL             time.Duration
	pathMinutes         int
	fetchTimeout        time.Duration
	timingsCacheSeconds int
	pathCacheSeconds    int

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSourceURL sets the TLE document URL.
func WithSourceURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.sourceURL = url
		}
	}
}

// WithSource replaces the HTTP TLE source.
func WithSource(src dataset.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithPredictor replaces the SGP4 predictor.
func WithPredictor(p Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.predictor = p
		}
	}
}

// WithClock overrides the clock of both caches.
func WithClock(clock ttl.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithDatasetTTL sets how long a fetched dataset is served.
func WithDatasetTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.datasetTTL = d
		}
	}
}

// WithPathCacheTTL sets how long a computed path result is served.
func WithPathCacheTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pathTTL = d
		}
	}
}

// WithPathDuration sets the ground-track length in minutes.
func WithPathDuration(minutes int) Option {
	return func(s *Service) {
		if minutes > 0 {
			s.pathMinutes = minutes
		}
	}
}

// WithFetchTimeout sets the HTTP timeout of the default TLE source.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithClientCacheSeconds sets the max-age hints of timings and path responses.
func WithClientCacheSeconds(timings, paths int) Option {
	return func(s *Service) {
		if timings >= 0 {
			s.timingsCacheSeconds = timings
		}
		if paths >= 0 {
			s.pathCacheSeconds = paths
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Components are ready to serve immediately; Start
// only warms the dataset cache.
func New(opts ...Option) *Service {
	s := &Service{
		sourceURL:           DefaultSourceURL,
		clock:               time.Now,
		datasetTTL:          dataset.DefaultTTL,
		pathTTL:             path.DefaultTTL,
		pathMinutes:         path.DefaultDurationMinutes,
		timingsCacheSeconds: DefaultTimingsCacheSeconds,
		pathCacheSeconds:    DefaultPathCacheSeconds,
		logger:              logger.Noop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.source == nil {
		s.source = tle.NewHTTPSource(
			tle.WithTimeout(s.fetchTimeout),
			tle.WithLogger(s.logger.Named("tle")),
		)
	}
	if s.predictor == nil {
		s.predictor = predictor.New(predictor.WithClock(s.clock))
	}

	s.datasets = dataset.New(s.sourceURL, s.source,
		dataset.WithClock(s.clock),
		dataset.WithTTL(s.datasetTTL),
		dataset.WithLogger(s.logger.Named("dataset")),
	)
	s.timings = timing.NewAggregator(s.predictor,
		timing.WithLogger(s.logger.Named("timing")),
	)
	s.paths = path.New(s.predictor,
		path.WithClock(s.clock),
		path.WithTTL(s.pathTTL),
		path.WithDuration(s.pathMinutes),
		path.WithLogger(s.logger.Named("path")),
	)
	return s
}

// Start warms the dataset cache. A failed warm-up is returned but leaves the
// service usable; the next request retries the fetch.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true

	s.logger.Info(ctx, "starting satfinder service...",
		logger.String("source", s.sourceURL),
		logger.Duration("datasetTTL", s.datasetTTL),
		logger.Duration("pathTTL", s.pathTTL),
	)
	if _, err := s.datasets.Fetch(ctx, false); err != nil {
		return err
	}
	s.logger.Info(ctx, "satfinder service started")
	return nil
}

// Stop marks the service stopped. Caches are in-memory and need no cleanup.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "satfinder service stopped")
}

// Route classifies a request path into a query variant and API version.
func Route(p string) (variant, apiVersion string) {
	variant, apiVersion = QueryTimings, APIVersion1
	if strings.HasPrefix(p, versionPrefix) {
		apiVersion = APIVersion11
	}
	if strings.Contains(p, pathMarker) {
		variant = QueryPath
	}
	return variant, apiVersion
}

// Handle answers one query. Validation failures and absent results are
// expressed in the returned envelope; dataset and predictor failures are
// returned as errors.
func (s *Service) Handle(ctx context.Context, req Request) (envelope.Response, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "service.handle")
	defer span.End()

	if req.Headers != nil {
		s.logger.Info(ctx, "request",
			logger.String("userAgent", req.Headers["User-Agent"]),
			logger.String("forwardedFor", req.Headers["X-Forwarded-For"]),
		)
	}

	variant, apiVersion := Route(req.Path)
	span.SetAttributes(
		attribute.String("query.variant", variant),
		attribute.String("query.api_version", apiVersion),
	)

	ds, err := s.datasets.Fetch(ctx, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dataset fetch failed")
		return envelope.Response{}, err
	}

	var resp envelope.Response
	switch variant {
	case QueryPath:
		resp, err = s.handlePath(ctx, ds, req.Query, apiVersion)
	default:
		resp, err = s.handleTimings(ctx, ds, req.Query, apiVersion)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return envelope.Response{}, err
	}
	span.SetAttributes(attribute.Int("response.status", resp.StatusCode))
	return resp, nil
}

func (s *Service) handleTimings(ctx context.Context, ds *model.Dataset, query map[string]string, apiVersion string) (envelope.Response, error) {
	p, err := params.ParseTiming(ds, query, apiVersion)
	if err != nil {
		return s.rejected(ctx, err)
	}
	s.logger.Debug(ctx, "checking timings",
		logger.Float64("latitude", p.Latitude),
		logger.Float64("longitude", p.Longitude),
		logger.String("apiVersion", p.APIVersion),
	)

	res, err := s.timings.Aggregate(ctx, ds, p)
	if err != nil {
		return envelope.Response{}, err
	}
	return envelope.Build(res, p.PrettyPrint, s.timingsCacheSeconds)
}

func (s *Service) handlePath(ctx context.Context, ds *model.Dataset, query map[string]string, apiVersion string) (envelope.Response, error) {
	p, err := params.ParsePath(ds, query, apiVersion)
	if err != nil {
		return s.rejected(ctx, err)
	}
	s.logger.Debug(ctx, "fetching path", logger.Strings("satIds", p.SatelliteIDs))

	res, err := s.paths.Get(ctx, ds, p)
	if err != nil {
		return envelope.Response{}, err
	}
	return envelope.Build(res, p.PrettyPrint, s.pathCacheSeconds)
}

func (s *Service) rejected(ctx context.Context, err error) (envelope.Response, error) {
	if !errors.Is(err, model.ErrValidation) {
		return envelope.Response{}, err
	}
	s.logger.Debug(ctx, "invalid parameters", logger.Error(err))
	return envelope.BadRequest(), nil
}

// Refresh force-fetches the dataset, bypassing the cache and any intermediary
// HTTP caches, and drops the cached path result computed from the old one.
func (s *Service) Refresh(ctx context.Context) (*model.Dataset, error) {
	ds, err := s.datasets.Fetch(ctx, true)
	if err != nil {
		return nil, err
	}
	s.paths.Invalidate()
	return ds, nil
}

// DatasetAge reports how old the cached dataset is.
func (s *Service) DatasetAge() (time.Duration, bool) {
	return s.datasets.Age()
}

// Stats returns a snapshot of the cache state.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	st := Stats{Started: s.started}
	s.mu.RUnlock()

	if ds, exp, ok := s.datasets.Snapshot(); ok && ds != nil {
		st.DatasetSource = ds.Source
		st.DatasetSatellites = len(ds.Satellites)
		st.DatasetActive = len(ds.Active())
		st.DatasetFetchedAt = ds.FetchedAt
		st.DatasetExpiresAt = exp
	}
	if exp, ok := s.paths.ExpiresAt(); ok {
		st.PathCacheExpiresAt = exp
	}
	return st
}
