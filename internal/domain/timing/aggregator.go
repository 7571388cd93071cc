// Package timing merges per-satellite visibility windows into one ordered
// answer.
package timing

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/okian/satfinder/internal/domain/model"
	"github.com/okian/satfinder/internal/domain/params"
	"github.com/okian/satfinder/pkg/errkind"
	"github.com/okian/satfinder/pkg/logger"
	"github.com/okian/satfinder/pkg/metrics"
)

// StartDaysOffset shifts the prediction window one day into the past so that
// passes already in progress are reported.
const StartDaysOffset = -1

const (
	tracerName = "github.com/okian/satfinder/internal/domain/timing"
	routine    = "visible_times"
)

// Predictor computes the visibility windows of one satellite from an observer.
type Predictor interface {
	VisibleTimes(ctx context.Context, sat model.Satellite, lat, lon float64, opts model.PredictOptions) (model.TimingResult, error)
}

// Aggregator fans a timings query out over the requested satellites.
type Aggregator struct {
	predictor Predictor
	logger    logger.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the aggregator logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator returns an Aggregator backed by predictor.
func NewAggregator(predictor Predictor, opts ...Option) *Aggregator {
	a := &Aggregator{predictor: predictor, logger: logger.Noop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate returns the visibility windows of every requested satellite found
// in ds, sorted by start time. It returns nil when no requested id resolves.
// Any predictor failure aborts the whole query.
func (a *Aggregator) Aggregate(ctx context.Context, ds *model.Dataset, p params.Timing) (*model.TimingResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "timing.aggregate")
	defer span.End()

	found, missing := model.Resolve(ds, p.SatelliteIDs)
	for _, id := range missing {
		a.logger.Warn(ctx, "no tle found for satellite", logger.String("satId", id))
		metrics.RecordLookupMiss("timings")
	}
	span.SetAttributes(
		attribute.Int("satellites.requested", len(p.SatelliteIDs)),
		attribute.Int("satellites.resolved", len(found)),
	)
	if len(found) == 0 {
		return nil, nil
	}

	opts := model.PredictOptions{
		APIVersion:      p.APIVersion,
		DayCount:        p.DayCount,
		TimeOfDay:       p.TimeOfDay,
		StartDaysOffset: StartDaysOffset,
	}

	result := &model.TimingResult{Timings: []model.TimingEvent{}}
	for _, sat := range found {
		start := time.Now()
		res, err := a.predictor.VisibleTimes(ctx, sat, p.Latitude, p.Longitude, opts)
		metrics.RecordPredictorLatency(routine, float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordPredictorError(routine)
			span.RecordError(err)
			span.SetStatus(codes.Error, "predictor failed")
			a.logger.Error(ctx, "error predicting visible times",
				logger.String("satId", sat.Name), logger.Error(err))
			return nil, errkind.With(errkind.WrapKind("timing.Aggregate", model.ErrPredictor, err), "satId", sat.Name)
		}
		result.Timings = append(result.Timings, res.Timings...)
	}

	sort.SliceStable(result.Timings, func(i, j int) bool {
		return result.Timings[i].Start.Epoch < result.Timings[j].Start.Epoch
	})
	span.SetAttributes(attribute.Int("timings", len(result.Timings)))
	return result, nil
}
