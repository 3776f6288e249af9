package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/mnemo/internal/adapters/repository"
	"github.com/okian/mnemo/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func record(patientID string, ts time.Time) model.Assessed {
	return model.Assessed{
		Record: model.Record{
			RecordID:  patientID + "-" + ts.Format("20060102"),
			PatientID: patientID,
			Timestamp: ts,
		},
		RiskAssessment: &model.RiskAssessment{OverallRisk: 0.5},
	}
}

func TestMemStore(t *testing.T) {
	Convey("Given an in-memory history store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx)
		t0 := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

		Convey("When records are appended for one patient", func() {
			So(store.Append(ctx, record("p-1", t0)), ShouldBeNil)
			So(store.Append(ctx, record("p-1", t0.AddDate(0, 6, 0))), ShouldBeNil)

			Convey("Then history preserves append order", func() {
				history, err := store.History(ctx, "p-1")
				So(err, ShouldBeNil)
				So(history, ShouldHaveLength, 2)
				So(history[0].Timestamp.Before(history[1].Timestamp), ShouldBeTrue)
			})

			Convey("And mutating the returned slice does not affect the store", func() {
				history, _ := store.History(ctx, "p-1")
				history[0].PatientID = "tampered"

				fresh, _ := store.History(ctx, "p-1")
				So(fresh[0].PatientID, ShouldEqual, "p-1")
			})
		})

		Convey("When reading an unknown patient", func() {
			history, err := store.History(ctx, "nobody")

			Convey("Then the history is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(history, ShouldHaveLength, 0)
			})
		})

		Convey("When several patients are tracked", func() {
			for i := 0; i < 20; i++ {
				So(store.Append(ctx, record(fmt.Sprintf("p-%d", i), t0)), ShouldBeNil)
			}
			So(store.Patients(ctx), ShouldEqual, 20)
		})

		Convey("When appends race across patients", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					id := fmt.Sprintf("p-%d", n)
					for j := 0; j < 25; j++ {
						_ = store.Append(ctx, record(id, t0.AddDate(0, j, 0)))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every history is complete", func() {
				for i := 0; i < 8; i++ {
					history, err := store.History(ctx, fmt.Sprintf("p-%d", i))
					So(err, ShouldBeNil)
					So(history, ShouldHaveLength, 25)
				}
			})
		})

		Convey("When the store is closed", func() {
			So(store.Close(), ShouldBeNil)

			Convey("Then appends fail with the closed sentinel", func() {
				err := store.Append(ctx, record("p-1", t0))
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
			})
		})
	})

	Convey("Given a store with a custom shard count", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx, repository.WithShardCount(1))

		Convey("When all patients land on one shard", func() {
			for i := 0; i < 10; i++ {
				So(store.Append(ctx, record(fmt.Sprintf("p-%d", i), time.Now())), ShouldBeNil)
			}

			Convey("Then behavior is unchanged", func() {
				So(store.Patients(ctx), ShouldEqual, 10)
			})
		})
	})
}
