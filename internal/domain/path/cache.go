// Package path computes and caches the ground tracks of tracked satellites.
package path

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/okian/satfinder/internal/domain/model"
	"github.com/okian/satfinder/internal/domain/params"
	"github.com/okian/satfinder/internal/domain/ttl"
	"github.com/okian/satfinder/pkg/errkind"
	"github.com/okian/satfinder/pkg/logger"
	"github.com/okian/satfinder/pkg/metrics"
)

// Defaults.
const (
	DefaultTTL             = 10 * time.Minute
	DefaultDurationMinutes = 90
)

const (
	tracerName = "github.com/okian/satfinder/internal/domain/path"
	routine    = "satellite_path"
)

// Predictor computes the ground track of one satellite over the next minutes.
type Predictor interface {
	SatellitePath(ctx context.Context, sat model.Satellite, minutes int) (model.PathRecord, error)
}

// Cache holds the last computed path result for every caller. It is not keyed
// by request parameters: within the TTL any path query gets the same answer.
type Cache struct {
	predictor Predictor
	slot      *ttl.Slot[model.PathResult]
	ttl       time.Duration
	clock     ttl.Clock
	minutes   int
	logger    logger.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the wall clock used for expiry.
func WithClock(clock ttl.Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithTTL sets how long a computed result is served.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithDuration sets the ground-track length in minutes.
func WithDuration(minutes int) Option {
	return func(c *Cache) {
		if minutes > 0 {
			c.minutes = minutes
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns an empty path cache backed by predictor.
func New(predictor Predictor, opts ...Option) *Cache {
	c := &Cache{
		predictor: predictor,
		ttl:       DefaultTTL,
		clock:     time.Now,
		minutes:   DefaultDurationMinutes,
		logger:    logger.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.slot = ttl.NewSlot[model.PathResult](c.ttl, c.clock)
	return c
}

// Get serves the cached result while it is fresh and recomputes it otherwise.
// A nil result means none of the requested satellites resolved; it is returned
// without being cached, as is a result whose computation overlapped Invalidate.
func (c *Cache) Get(ctx context.Context, ds *model.Dataset, p params.Path) (model.PathResult, error) {
	if res, ok := c.slot.Get(); ok {
		metrics.RecordCacheHit(metrics.CachePath)
		return res, nil
	}
	metrics.RecordCacheMiss(metrics.CachePath)

	gen := c.slot.Generation()
	res, err := c.compute(ctx, ds, p)
	if err != nil || res == nil {
		return res, err
	}
	if _, ok := c.slot.SetIf(res, gen); !ok {
		c.logger.Debug(ctx, "path result outdated by invalidation; not cached")
	}
	return res, nil
}

// Invalidate drops the cached result. A computation already running when it
// is called still answers its caller but is not cached.
func (c *Cache) Invalidate() {
	c.slot.Invalidate()
}

// ExpiresAt reports when the cached result goes stale. ok is false when
// nothing is cached.
func (c *Cache) ExpiresAt() (time.Time, bool) {
	e, ok := c.slot.Peek()
	return e.ExpiresAt, ok
}

func (c *Cache) compute(ctx context.Context, ds *model.Dataset, p params.Path) (model.PathResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "path.compute")
	defer span.End()

	focus := ds.FocusID()
	found, missing := model.Resolve(ds, p.SatelliteIDs)
	for _, id := range missing {
		c.logger.Warn(ctx, "no tle found for satellite", logger.String("satId", id))
		metrics.RecordLookupMiss("path")
	}
	span.SetAttributes(
		attribute.Int("satellites.requested", len(p.SatelliteIDs)),
		attribute.Int("satellites.resolved", len(found)),
		attribute.Int("path.minutes", c.minutes),
	)
	if len(found) == 0 {
		return nil, nil
	}

	res := make(model.PathResult, len(found))
	for _, sat := range found {
		start := time.Now()
		rec, err := c.predictor.SatellitePath(ctx, sat, c.minutes)
		metrics.RecordPredictorLatency(routine, float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordPredictorError(routine)
			span.RecordError(err)
			span.SetStatus(codes.Error, "predictor failed")
			c.logger.Error(ctx, "error predicting satellite path",
				logger.String("satId", sat.Name), logger.Error(err))
			return nil, errkind.With(errkind.WrapKind("path.Get", model.ErrPredictor, err), "satId", sat.Name)
		}
		rec.Title = sat.Title
		rec.Focus = focus != "" && sat.Name == focus
		res[sat.Name] = rec
	}
	return res, nil
}
