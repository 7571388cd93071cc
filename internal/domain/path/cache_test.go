package path_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/satfinder/internal/domain/model"
	"github.com/okian/satfinder/internal/domain/params"
	"github.com/okian/satfinder/internal/domain/path"
	. "github.com/smartystreets/goconvey/convey"
)

type stubPredictor struct {
	calls   int
	minutes []int
	err     error
	during  func()
}

func (s *stubPredictor) SatellitePath(_ context.Context, sat model.Satellite, minutes int) (model.PathRecord, error) {
	s.calls++
	if s.during != nil {
		s.during()
	}
	s.minutes = append(s.minutes, minutes)
	if s.err != nil {
		return model.PathRecord{}, s.err
	}
	return model.PathRecord{
		Title:  "ignored",
		Focus:  true,
		Points: []model.PathPoint{{Epoch: int64(s.calls), Latitude: 1, Longitude: 2, Altitude: 550}},
	}, nil
}

func testDataset() *model.Dataset {
	return &model.Dataset{Satellites: []model.Satellite{
		{Name: "S1", Title: "Starlink-1", Active: true},
		{Name: "S2", Title: "Starlink-2", Active: false},
		{Name: "S3", Title: "Starlink-3", Active: true},
	}}
}

func TestPathCache(t *testing.T) {
	Convey("Given an empty path cache", t, func() {
		ctx := context.Background()
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		pred := &stubPredictor{}
		cache := path.New(pred, path.WithClock(clock))
		ds := testDataset()

		Convey("When computing S1 and S3", func() {
			res, err := cache.Get(ctx, ds, params.Path{SatelliteIDs: []string{"S1", "S3"}})

			Convey("Then titles come from the dataset and only the first active satellite is focus", func() {
				So(err, ShouldBeNil)
				So(res, ShouldHaveLength, 2)
				So(res["S1"].Title, ShouldEqual, "Starlink-1")
				So(res["S1"].Focus, ShouldBeTrue)
				So(res["S3"].Title, ShouldEqual, "Starlink-3")
				So(res["S3"].Focus, ShouldBeFalse)
				So(res.FocusCount(), ShouldEqual, 1)
				So(pred.minutes, ShouldResemble, []int{90, 90})
			})

			Convey("Then a different query within ten minutes gets the cached result", func() {
				now = now.Add(9 * time.Minute)
				again, err := cache.Get(ctx, ds, params.Path{SatelliteIDs: []string{"S2"}})
				So(err, ShouldBeNil)
				So(again, ShouldResemble, res)
				So(pred.calls, ShouldEqual, 2)
			})

			Convey("Then the result is recomputed after ten minutes", func() {
				now = now.Add(10*time.Minute + time.Second)
				again, err := cache.Get(ctx, ds, params.Path{SatelliteIDs: []string{"S2"}})
				So(err, ShouldBeNil)
				So(again, ShouldHaveLength, 1)
				So(again["S2"].Focus, ShouldBeFalse)
				So(again.FocusCount(), ShouldEqual, 0)
				So(pred.calls, ShouldEqual, 3)
			})

			Convey("Then invalidation forces a recompute", func() {
				cache.Invalidate()
				_, _ = cache.Get(ctx, ds, params.Path{SatelliteIDs: []string{"S1"}})
				So(pred.calls, ShouldEqual, 3)
			})
		})

		Convey("When nothing resolves", func() {
			res, err := cache.Get(ctx, ds, params.Path{SatelliteIDs: []string{"X"}})

			Convey("Then the result is absent and not cached", func() {
				So(err, ShouldBeNil)
				So(res, ShouldBeNil)
				_, ok := cache.ExpiresAt()
				So(ok, ShouldBeFalse)

				next, err := cache.Get(ctx, ds, params.Path{SatelliteIDs: []string{"S1"}})
				So(err, ShouldBeNil)
				So(next, ShouldHaveLength, 1)
			})
		})

		Convey("When the dataset has no active satellite", func() {
			inactive := &model.Dataset{Satellites: []model.Satellite{{Name: "S2", Title: "Starlink-2"}}}
			res, err := cache.Get(ctx, inactive, params.Path{SatelliteIDs: []string{"S2"}})

			Convey("Then no record is focus", func() {
				So(err, ShouldBeNil)
				So(res.FocusCount(), ShouldEqual, 0)
			})
		})

		Convey("When the cache is invalidated while a result is being computed", func() {
			pred.during = func() {
				pred.during = nil
				cache.Invalidate()
			}
			res, err := cache.Get(ctx, ds, params.Path{SatelliteIDs: []string{"S1"}})

			Convey("Then the caller gets the result but it is not cached", func() {
				So(err, ShouldBeNil)
				So(res, ShouldHaveLength, 1)
				_, ok := cache.ExpiresAt()
				So(ok, ShouldBeFalse)

				_, err = cache.Get(ctx, ds, params.Path{SatelliteIDs: []string{"S1"}})
				So(err, ShouldBeNil)
				So(pred.calls, ShouldEqual, 2)
				_, ok = cache.ExpiresAt()
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When the predictor fails", func() {
			pred.err = errors.New("decay")
			res, err := cache.Get(ctx, ds, params.Path{SatelliteIDs: []string{"S1"}})

			Convey("Then the error is a predictor error and the slot stays empty", func() {
				So(res, ShouldBeNil)
				So(errors.Is(err, model.ErrPredictor), ShouldBeTrue)
				_, ok := cache.ExpiresAt()
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a cache with a custom duration and ttl", t, func() {
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		pred := &stubPredictor{}
		cache := path.New(pred,
			path.WithClock(func() time.Time { return now }),
			path.WithDuration(30),
			path.WithTTL(time.Minute),
		)

		_, err := cache.Get(context.Background(), testDataset(), params.Path{SatelliteIDs: []string{"S1"}})
		So(err, ShouldBeNil)
		So(pred.minutes, ShouldResemble, []int{30})

		exp, ok := cache.ExpiresAt()
		So(ok, ShouldBeTrue)
		So(exp, ShouldEqual, now.Add(time.Minute))
	})
}
