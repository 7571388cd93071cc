package timing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/satfinder/internal/domain/model"
	"github.com/okian/satfinder/internal/domain/params"
	"github.com/okian/satfinder/internal/domain/timing"
	"github.com/okian/satfinder/pkg/errkind"
	. "github.com/smartystreets/goconvey/convey"
)

type stubPredictor struct {
	starts map[string][]int64
	fail   map[string]error
	calls  []string
	opts   []model.PredictOptions
}

func (s *stubPredictor) VisibleTimes(_ context.Context, sat model.Satellite, _, _ float64, opts model.PredictOptions) (model.TimingResult, error) {
	s.calls = append(s.calls, sat.Name)
	s.opts = append(s.opts, opts)
	if err := s.fail[sat.Name]; err != nil {
		return model.TimingResult{}, err
	}
	var res model.TimingResult
	for _, e := range s.starts[sat.Name] {
		res.Timings = append(res.Timings, model.TimingEvent{
			SatelliteID: sat.Name,
			Start:       model.Moment{Epoch: e},
			End:         model.Moment{Epoch: e + 300},
		})
	}
	return res, nil
}

func testDataset() *model.Dataset {
	return &model.Dataset{Satellites: []model.Satellite{
		{Name: "S1", Active: true},
		{Name: "S2", Active: false},
		{Name: "S3", Active: true},
	}}
}

func TestAggregate(t *testing.T) {
	Convey("Given an aggregator over a stub predictor", t, func() {
		ctx := context.Background()
		ds := testDataset()
		pred := &stubPredictor{starts: map[string][]int64{
			"S1": {300, 100},
			"S2": {200},
			"S3": {100, 50},
		}}
		agg := timing.NewAggregator(pred)
		p := params.Timing{
			SatelliteIDs: []string{"S1", "S3"},
			Latitude:     10,
			Longitude:    20,
			DayCount:     5,
			TimeOfDay:    "all",
			APIVersion:   "1.1",
		}

		Convey("When every requested satellite resolves", func() {
			res, err := agg.Aggregate(ctx, ds, p)

			Convey("Then windows are merged and sorted by start", func() {
				So(err, ShouldBeNil)
				So(res, ShouldNotBeNil)
				var starts []int64
				for _, e := range res.Timings {
					starts = append(starts, e.Start.Epoch)
				}
				So(starts, ShouldResemble, []int64{50, 100, 100, 300})
			})

			Convey("Then equal starts keep their concatenation order", func() {
				So(res.Timings[1].SatelliteID, ShouldEqual, "S1")
				So(res.Timings[2].SatelliteID, ShouldEqual, "S3")
			})

			Convey("Then the predictor receives the normalized options", func() {
				So(pred.calls, ShouldResemble, []string{"S1", "S3"})
				So(pred.opts[0], ShouldResemble, model.PredictOptions{
					APIVersion:      "1.1",
					DayCount:        5,
					TimeOfDay:       "all",
					StartDaysOffset: -1,
				})
			})
		})

		Convey("When some ids are unknown", func() {
			p.SatelliteIDs = []string{"ghost", "S2"}
			res, err := agg.Aggregate(ctx, ds, p)

			Convey("Then they are skipped and inactive ids still resolve", func() {
				So(err, ShouldBeNil)
				So(res.Timings, ShouldHaveLength, 1)
				So(res.Timings[0].SatelliteID, ShouldEqual, "S2")
				So(pred.calls, ShouldResemble, []string{"S2"})
			})
		})

		Convey("When no id resolves", func() {
			p.SatelliteIDs = []string{"X"}
			res, err := agg.Aggregate(ctx, ds, p)

			Convey("Then the result is absent", func() {
				So(err, ShouldBeNil)
				So(res, ShouldBeNil)
				So(pred.calls, ShouldBeEmpty)
			})
		})

		Convey("When the id list is empty", func() {
			p.SatelliteIDs = nil
			res, err := agg.Aggregate(ctx, ds, p)
			So(err, ShouldBeNil)
			So(res, ShouldBeNil)
		})

		Convey("When resolved satellites have no windows", func() {
			pred.starts = nil
			res, err := agg.Aggregate(ctx, ds, p)

			Convey("Then the result is present with an empty list", func() {
				So(err, ShouldBeNil)
				So(res, ShouldNotBeNil)
				So(res.Timings, ShouldNotBeNil)
				So(res.Timings, ShouldBeEmpty)
			})
		})

		Convey("When the predictor fails for one satellite", func() {
			cause := errors.New("bad elements")
			pred.fail = map[string]error{"S1": cause}
			res, err := agg.Aggregate(ctx, ds, p)

			Convey("Then the whole query fails with a predictor error", func() {
				So(res, ShouldBeNil)
				So(errors.Is(err, model.ErrPredictor), ShouldBeTrue)
				So(errors.Is(err, cause), ShouldBeTrue)
				id, ok := errkind.Field(err, "satId")
				So(ok, ShouldBeTrue)
				So(id, ShouldEqual, "S1")
				So(err.Error(), ShouldContainSubstring, "[satId=S1]")
				So(pred.calls, ShouldResemble, []string{"S1"})
			})
		})
	})
}
