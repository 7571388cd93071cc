package dataset_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/satfinder/internal/domain/dataset"
	"github.com/okian/satfinder/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeSource struct {
	mu    sync.Mutex
	urls  []string
	err   error
	names []string
}

func (s *fakeSource) Fetch(_ context.Context, url string) (*model.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, url)
	if s.err != nil {
		return nil, s.err
	}
	ds := &model.Dataset{}
	for _, n := range s.names {
		ds.Satellites = append(ds.Satellites, model.Satellite{Name: n, Active: true})
	}
	return ds, nil
}

func (s *fakeSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

const base = "https://example.test/data/tle.json"

func TestCacheFetch(t *testing.T) {
	Convey("Given an empty dataset cache", t, func() {
		ctx := context.Background()
		clock := &fakeClock{now: time.Date(2024, 3, 7, 9, 30, 0, 0, time.UTC)}
		src := &fakeSource{names: []string{"sat-1"}}
		cache := dataset.New(base, src, dataset.WithClock(clock.Now))

		Convey("When fetching for the first time", func() {
			ds, err := cache.Fetch(ctx, false)

			Convey("Then it downloads with the day token", func() {
				So(err, ShouldBeNil)
				So(ds.Satellites, ShouldHaveLength, 1)
				So(src.urls, ShouldResemble, []string{base + "?v=2024.3.7"})
				So(ds.FetchedAt, ShouldEqual, clock.Now())
				So(ds.Source, ShouldEqual, base+"?v=2024.3.7")
			})

			Convey("Then a second fetch within the hour performs no I/O", func() {
				clock.Advance(59 * time.Minute)
				again, err := cache.Fetch(ctx, false)
				So(err, ShouldBeNil)
				So(again, ShouldEqual, ds)
				So(src.calls(), ShouldEqual, 1)
			})

			Convey("Then the entry is still served exactly at expiry", func() {
				clock.Advance(60 * time.Minute)
				_, err := cache.Fetch(ctx, false)
				So(err, ShouldBeNil)
				So(src.calls(), ShouldEqual, 1)
			})

			Convey("Then it refetches once the hour has passed", func() {
				clock.Advance(61 * time.Minute)
				_, err := cache.Fetch(ctx, false)
				So(err, ShouldBeNil)
				So(src.calls(), ShouldEqual, 2)
			})

			Convey("Then a forced fetch always downloads with a millisecond suffix", func() {
				clock.Advance(time.Minute)
				_, err := cache.Fetch(ctx, true)
				So(err, ShouldBeNil)
				So(src.calls(), ShouldEqual, 2)
				want := base + "?v=2024.3.7.1709803860000"
				So(src.urls[1], ShouldEqual, want)
			})

			Convey("Then a failed refetch keeps the stale dataset but returns a fetch error", func() {
				clock.Advance(2 * time.Hour)
				src.err = errors.New("connection refused")

				got, err := cache.Fetch(ctx, false)
				So(got, ShouldBeNil)
				So(errors.Is(err, model.ErrFetch), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "connection refused")

				held, _, ok := cache.Snapshot()
				So(ok, ShouldBeTrue)
				So(held, ShouldEqual, ds)

				age, ok := cache.Age()
				So(ok, ShouldBeTrue)
				So(age, ShouldEqual, 2*time.Hour)
			})
		})

		Convey("When the source returns nothing", func() {
			empty := dataset.New(base, dataset.SourceFunc(func(context.Context, string) (*model.Dataset, error) {
				return nil, nil
			}))
			_, err := empty.Fetch(ctx, false)

			Convey("Then it is reported as a fetch failure", func() {
				So(errors.Is(err, model.ErrFetch), ShouldBeTrue)
				So(errors.Is(err, dataset.ErrEmptyDocument), ShouldBeTrue)
			})
		})

		Convey("When the cache has never fetched", func() {
			_, ok := cache.Age()
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a custom ttl", t, func() {
		clock := &fakeClock{now: time.Date(2024, 3, 7, 9, 30, 0, 0, time.UTC)}
		src := &fakeSource{}
		cache := dataset.New(base, src, dataset.WithClock(clock.Now), dataset.WithTTL(5*time.Minute))

		_, _ = cache.Fetch(context.Background(), false)
		clock.Advance(6 * time.Minute)
		_, _ = cache.Fetch(context.Background(), false)

		So(src.calls(), ShouldEqual, 2)
	})
}

func TestVersionedURL(t *testing.T) {
	Convey("Given a fixed instant", t, func() {
		now := time.Date(2021, 12, 1, 23, 0, 0, 0, time.UTC)

		Convey("Then month and day are not zero padded", func() {
			So(dataset.VersionedURL(base, now, false), ShouldEqual, base+"?v=2021.12.1")
		})

		Convey("Then an existing query string is extended", func() {
			got := dataset.VersionedURL(base+"?key=1", now, false)
			So(got, ShouldEqual, base+"?key=1&v=2021.12.1")
		})

		Convey("Then the forced token carries unix milliseconds", func() {
			got := dataset.VersionedURL(base, now, true)
			So(strings.HasSuffix(got, ".1638399600000"), ShouldBeTrue)
		})
	})
}
