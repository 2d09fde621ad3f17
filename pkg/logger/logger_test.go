package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInitWithOptions(t *testing.T) {
	Convey("Given the global logger", t, func() {
		ctx := context.Background()

		Convey("When initialized with JSON output", func() {
			var buf bytes.Buffer
			So(InitWithOptions(WithFormat("json"), WithWriter(&buf)), ShouldBeNil)

			Named("engine").Info(ctx, "scored",
				String("institution_id", "inst-1"),
				Float64("final_score", 62),
				Int("workers", 4),
			)

			Convey("Then records are valid JSON with the component and fields", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "scored")
				So(rec["component"], ShouldEqual, "engine")
				So(rec["institution_id"], ShouldEqual, "inst-1")
				So(rec["final_score"], ShouldEqual, 62.0)
				So(rec["workers"], ShouldEqual, 4.0)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When initialized with text output", func() {
			var buf bytes.Buffer
			So(InitWithOptions(WithWriter(&buf)), ShouldBeNil)
			Get().With(String("request_id", "abc")).Warn(ctx, "slow", Error(errors.New("boom")))

			Convey("Then attached fields appear on the line", func() {
				line := buf.String()
				So(line, ShouldContainSubstring, "level=WARN")
				So(line, ShouldContainSubstring, "request_id=abc")
				So(line, ShouldContainSubstring, "error=boom")
			})
		})

		Convey("When the level is raised", func() {
			var buf bytes.Buffer
			So(InitWithOptions(WithWriter(&buf)), ShouldBeNil)
			So(SetLevelString("error"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Debug(ctx, "hidden")
			Get().Error(ctx, "shown")

			Convey("Then lower levels are dropped", func() {
				So(strings.Count(buf.String(), "\n"), ShouldEqual, 1)
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})

		Convey("When the format or level is unknown", func() {
			So(InitWithOptions(WithFormat("xml")), ShouldNotBeNil)
			So(SetLevelString("loud"), ShouldNotBeNil)
		})

		Convey("When syncing", func() {
			So(Init(), ShouldBeNil)
			So(Sync(), ShouldBeNil)
		})
	})
}
