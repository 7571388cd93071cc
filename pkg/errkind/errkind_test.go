package errkind

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

var errTest = errors.New("test kind")

func TestKinds(t *testing.T) {
	Convey("Given a kind and a cause", t, func() {
		cause := errors.New("boom")

		Convey("WrapKind should match both kind and cause", func() {
			err := WrapKind("op.test", errTest, cause)
			So(errors.Is(err, errTest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op.test: test kind: boom")
		})

		Convey("NewKind should match the kind only", func() {
			err := NewKind("op.test", errTest)
			So(errors.Is(err, errTest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeFalse)
			So(err.Error(), ShouldEqual, "op.test: test kind")
		})

		Convey("Wrap should keep nil as nil", func() {
			So(Wrap("op.test", nil), ShouldBeNil)
			So(errors.Is(Wrap("op.test", cause), cause), ShouldBeTrue)
		})

		Convey("Kinds survive fmt wrapping", func() {
			err := fmt.Errorf("outer: %w", NewKind("op.test", errTest))
			So(errors.Is(err, errTest), ShouldBeTrue)
		})
	})
}

func TestFields(t *testing.T) {
	Convey("Given an error with a field", t, func() {
		err := With(NewKind("op.test", errTest), "field", "latitude")

		Convey("Then the field should be readable", func() {
			v, ok := Field(err, "field")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "latitude")
			So(errors.Is(err, errTest), ShouldBeTrue)
		})

		Convey("Then the field should be part of the message", func() {
			So(err.Error(), ShouldEqual, "op.test: test kind [field=latitude]")
			multi := With(With(WrapKind("op.test", errTest, errors.New("boom")), "satId", "s1"), "field", "x")
			So(multi.Error(), ShouldEqual, "op.test: test kind: boom [field=x satId=s1]")
		})

		Convey("Then a missing field should report false", func() {
			_, ok := Field(err, "other")
			So(ok, ShouldBeFalse)
		})

		Convey("Then plain errors are wrapped", func() {
			plain := With(errors.New("plain"), "k", "v")
			v, ok := Field(plain, "k")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "v")
		})
	})
}
