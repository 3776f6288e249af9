package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/mnemo/internal/adapters/mq/queue"
	"github.com/okian/mnemo/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryQueue(t *testing.T) {
	Convey("Given a bounded in-memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewMemoryQueue(ctx, queue.WithCapacity(2))

		Convey("When a record is enqueued", func() {
			rec := model.Record{RecordID: "rec-1", PatientID: "p-1"}
			So(q.Enqueue(ctx, rec), ShouldBeNil)
			So(q.Size(), ShouldEqual, 1)

			Convey("Then it dequeues in FIFO order", func() {
				So(q.Enqueue(ctx, model.Record{RecordID: "rec-2"}), ShouldBeNil)

				first, err := q.Dequeue(ctx)
				So(err, ShouldBeNil)
				So(first.RecordID, ShouldEqual, "rec-1")

				second, err := q.Dequeue(ctx)
				So(err, ShouldBeNil)
				So(second.RecordID, ShouldEqual, "rec-2")
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, model.Record{RecordID: "rec-1"}), ShouldBeNil)
			So(q.Enqueue(ctx, model.Record{RecordID: "rec-2"}), ShouldBeNil)

			Convey("Then enqueue rejects immediately instead of blocking", func() {
				err := q.Enqueue(ctx, model.Record{RecordID: "rec-3"})
				So(errors.Is(err, queue.ErrQueueFull), ShouldBeTrue)
				So(q.Size(), ShouldEqual, 2)
			})
		})

		Convey("When dequeueing from an empty queue", func() {
			timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()

			_, err := q.Dequeue(timeoutCtx)

			Convey("Then it blocks until the context expires", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, model.Record{RecordID: "rec-1"}), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new enqueues fail", func() {
				err := q.Enqueue(ctx, model.Record{RecordID: "rec-2"})
				So(errors.Is(err, queue.ErrQueueClosed), ShouldBeTrue)
			})

			Convey("And queued records still drain", func() {
				rec, err := q.Dequeue(ctx)
				So(err, ShouldBeNil)
				So(rec.RecordID, ShouldEqual, "rec-1")

				_, err = q.Dequeue(ctx)
				So(errors.Is(err, queue.ErrQueueClosed), ShouldBeTrue)
			})

			Convey("And closing twice is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})

		Convey("When capacity is inspected", func() {
			So(q.Capacity(), ShouldEqual, 2)
		})
	})
}
