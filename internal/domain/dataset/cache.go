// Package dataset caches the remote TLE document behind a single TTL slot.
package dataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/okian/satfinder/internal/domain/model"
	"github.com/okian/satfinder/internal/domain/ttl"
	"github.com/okian/satfinder/pkg/errkind"
	"github.com/okian/satfinder/pkg/logger"
	"github.com/okian/satfinder/pkg/metrics"
)

// DefaultTTL is how long a fetched dataset is served before refetching.
const DefaultTTL = 60 * time.Minute

const tracerName = "github.com/okian/satfinder/internal/domain/dataset"

// Source retrieves and decodes the TLE document at url.
type Source interface {
	Fetch(ctx context.Context, url string) (*model.Dataset, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, url string) (*model.Dataset, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, url string) (*model.Dataset, error) {
	return f(ctx, url)
}

// Cache serves the TLE dataset from memory until it expires.
type Cache struct {
	baseURL string
	source  Source
	slot    *ttl.Slot[*model.Dataset]
	ttl     time.Duration
	clock   ttl.Clock
	logger  logger.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the wall clock used for expiry and the version token.
func WithClock(clock ttl.Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithTTL sets the dataset lifetime.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
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

// New returns an empty cache that fetches baseURL through source.
func New(baseURL string, source Source, opts ...Option) *Cache {
	c := &Cache{
		baseURL: baseURL,
		source:  source,
		ttl:     DefaultTTL,
		clock:   time.Now,
		logger:  logger.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.slot = ttl.NewSlot[*model.Dataset](c.ttl, c.clock)
	return c
}

// Fetch returns the cached dataset while it is fresh, otherwise it downloads a
// new copy. forceFresh skips the cache and busts intermediary caches too. On
// failure the previous dataset stays in the slot, stale.
func (c *Cache) Fetch(ctx context.Context, forceFresh bool) (*model.Dataset, error) {
	if !forceFresh {
		if ds, ok := c.slot.Get(); ok {
			metrics.RecordCacheHit(metrics.CacheDataset)
			return ds, nil
		}
	}
	metrics.RecordCacheMiss(metrics.CacheDataset)

	now := c.clock()
	url := VersionedURL(c.baseURL, now, forceFresh)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "dataset.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("tle.url", url),
		attribute.Bool("tle.forced", forceFresh),
	)

	start := time.Now()
	ds, err := c.source.Fetch(ctx, url)
	metrics.RecordDatasetFetchLatency(float64(time.Since(start).Milliseconds()))
	if err == nil && ds == nil {
		err = ErrEmptyDocument
	}
	if err != nil {
		metrics.RecordDatasetFetch("error", forceFresh)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		c.logger.Error(ctx, "tle fetch failed", logger.String("url", url), logger.Error(err))
		return nil, errkind.WrapKind("dataset.Fetch", model.ErrFetch, err)
	}

	ds.FetchedAt = now
	ds.Source = url
	c.slot.Set(ds)

	active := len(ds.Active())
	metrics.RecordDatasetFetch("ok", forceFresh)
	metrics.UpdateDatasetSatellites(len(ds.Satellites), active)
	metrics.UpdateDatasetAge(0)
	span.SetAttributes(attribute.Int("tle.satellites", len(ds.Satellites)))
	c.logger.Info(ctx, "tle dataset refreshed",
		logger.String("url", url),
		logger.Int("satellites", len(ds.Satellites)),
		logger.Int("active", active),
	)
	return ds, nil
}

// Snapshot returns the held dataset and its expiry without fetching.
func (c *Cache) Snapshot() (*model.Dataset, time.Time, bool) {
	e, ok := c.slot.Peek()
	return e.Value, e.ExpiresAt, ok
}

// Age returns how long ago the held dataset was fetched. ok is false when the
// cache is empty.
func (c *Cache) Age() (time.Duration, bool) {
	e, ok := c.slot.Peek()
	if !ok || e.Value == nil {
		return 0, false
	}
	return c.clock().Sub(e.Value.FetchedAt), true
}

// VersionedURL appends the day token v=YYYY.M.D to base. When forced, the
// token is suffixed with the current unix time in milliseconds.
func VersionedURL(base string, now time.Time, forced bool) string {
	token := fmt.Sprintf("%d.%d.%d", now.Year(), int(now.Month()), now.Day())
	if forced {
		token += "." + strconv.FormatInt(now.UnixMilli(), 10)
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "v=" + token
}
