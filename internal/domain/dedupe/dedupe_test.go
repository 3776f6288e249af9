package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/mnemo/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given an in-memory deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		ctx := context.Background()

		Convey("When an ID is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "rec-1")

			Convey("Then it reports unseen", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a repeat reports seen", func() {
				So(d.SeenAndRecord(ctx, "rec-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an ID is unrecorded", func() {
			d.SeenAndRecord(ctx, "rec-1")
			d.Unrecord(ctx, "rec-1")

			Convey("Then it can be recorded again", func() {
				So(d.SeenAndRecord(ctx, "rec-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown ID", func() {
			d.Unrecord(ctx, "never-seen")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When many goroutines record the same ID", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			var unseen int

			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(ctx, "contended") {
						mu.Lock()
						unseen++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one wins", func() {
				So(unseen, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a deduper bounded to three IDs", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		ctx := context.Background()

		Convey("When a fourth ID arrives", func() {
			for i := 1; i <= 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("rec-%d", i))
			}

			Convey("Then the oldest is evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "rec-1"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "rec-4"), ShouldBeTrue)
			})
		})
	})
}
