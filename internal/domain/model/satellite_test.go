package model_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/satfinder/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func sampleDataset() *model.Dataset {
	return &model.Dataset{Satellites: []model.Satellite{
		{Name: "old-1", Title: "Old train", Active: false},
		{Name: "train-a", Title: "Train A", Active: true},
		{Name: "train-b", Title: "Train B", Active: true},
		{Name: "old-2", Active: false},
	}}
}

func TestDatasetLookups(t *testing.T) {
	convey.Convey("Given a dataset with active and inactive satellites", t, func() {
		ds := sampleDataset()

		convey.Convey("Find matches names exactly", func() {
			s, ok := ds.Find("train-b")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(s.Title, convey.ShouldEqual, "Train B")

			_, ok = ds.Find("TRAIN-B")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Active keeps dataset order", func() {
			convey.So(ds.ActiveNames(), convey.ShouldResemble, []string{"train-a", "train-b"})
			convey.So(ds.FocusID(), convey.ShouldEqual, "train-a")
		})

		convey.Convey("A dataset without active satellites has no focus", func() {
			none := &model.Dataset{Satellites: []model.Satellite{{Name: "x"}}}
			convey.So(none.FocusID(), convey.ShouldEqual, "")
			convey.So(none.ActiveNames(), convey.ShouldBeEmpty)
		})

		convey.Convey("A nil dataset is safe to query", func() {
			var nilDS *model.Dataset
			_, ok := nilDS.Find("train-a")
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(nilDS.FocusID(), convey.ShouldEqual, "")
		})
	})
}

func TestResolve(t *testing.T) {
	convey.Convey("Given requested ids with misses", t, func() {
		ds := sampleDataset()
		found, missing := model.Resolve(ds, []string{"train-b", "ghost", "old-1", "train-b"})

		convey.Convey("Then matches keep request order and misses are reported", func() {
			convey.So(len(found), convey.ShouldEqual, 3)
			convey.So(found[0].Name, convey.ShouldEqual, "train-b")
			convey.So(found[1].Name, convey.ShouldEqual, "old-1")
			convey.So(found[2].Name, convey.ShouldEqual, "train-b")
			convey.So(missing, convey.ShouldResemble, []string{"ghost"})
		})
	})
}

func TestDatasetDecoding(t *testing.T) {
	convey.Convey("Given a remote TLE document", t, func() {
		doc := `{"satellites":[{"name":"train-a","title":"Train A","active":true,"tle1":"1 x","tle2":"2 y","extra":42}]}`

		convey.Convey("Then it decodes into the dataset, ignoring unknown fields", func() {
			var ds model.Dataset
			convey.So(json.Unmarshal([]byte(doc), &ds), convey.ShouldBeNil)
			convey.So(len(ds.Satellites), convey.ShouldEqual, 1)
			convey.So(ds.Satellites[0].Active, convey.ShouldBeTrue)
			convey.So(ds.Satellites[0].Line1, convey.ShouldEqual, "1 x")
		})
	})
}

func TestPathResultFocusCount(t *testing.T) {
	convey.Convey("Given a path result", t, func() {
		r := model.PathResult{
			"a": {Title: "A", Focus: true},
			"b": {Title: "B"},
		}
		convey.So(r.FocusCount(), convey.ShouldEqual, 1)

		convey.Convey("Focus is omitted from JSON when false", func() {
			b, err := json.Marshal(r["b"])
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldNotContainSubstring, "focus")
		})
	})
}
