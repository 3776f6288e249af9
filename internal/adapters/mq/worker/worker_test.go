package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/mnemo/internal/adapters/mq/queue"
	"github.com/okian/mnemo/internal/adapters/mq/worker"
	"github.com/okian/mnemo/internal/domain/model"
	"github.com/okian/mnemo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type recordingProcessor struct {
	mu        sync.Mutex
	processed []string
	fail      bool
}

func (p *recordingProcessor) Process(_ context.Context, rec model.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("processing failed")
	}
	p.processed = append(p.processed, rec.RecordID)
	return nil
}

func (p *recordingProcessor) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.processed))
	copy(out, p.processed)
	return out
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestPool(t *testing.T) {
	Convey("Given a worker pool draining a queue", t, func() {
		ctx := context.Background()
		q := queue.NewMemoryQueue(ctx, queue.WithCapacity(100))
		processor := &recordingProcessor{}
		pool := worker.NewPool(q, processor, worker.WithCount(3))

		Convey("When records are enqueued after start", func() {
			So(pool.Start(ctx), ShouldBeNil)
			defer func() { _ = pool.Stop(ctx) }()

			for _, id := range []string{"rec-1", "rec-2", "rec-3"} {
				So(q.Enqueue(ctx, model.Record{RecordID: id}), ShouldBeNil)
			}

			Convey("Then every record is processed", func() {
				So(waitFor(func() bool { return len(processor.seen()) == 3 }), ShouldBeTrue)
			})
		})

		Convey("When the pool is started twice", func() {
			So(pool.Start(ctx), ShouldBeNil)
			defer func() { _ = pool.Stop(ctx) }()

			Convey("Then the second start fails", func() {
				So(pool.Start(ctx), ShouldNotBeNil)
			})
		})

		Convey("When the processor fails", func() {
			processor.fail = true
			So(pool.Start(ctx), ShouldBeNil)
			defer func() { _ = pool.Stop(ctx) }()

			So(q.Enqueue(ctx, model.Record{RecordID: "rec-1"}), ShouldBeNil)

			Convey("Then the failure is absorbed and the pool keeps running", func() {
				So(waitFor(func() bool { return q.Size() == 0 }), ShouldBeTrue)
				So(pool.Stop(ctx), ShouldBeNil)
			})
		})

		Convey("When the pool is stopped", func() {
			So(pool.Start(ctx), ShouldBeNil)
			So(pool.Stop(ctx), ShouldBeNil)

			Convey("Then stopping again is harmless", func() {
				So(pool.Stop(ctx), ShouldBeNil)
			})
		})

		Convey("When the queue closes", func() {
			So(pool.Start(ctx), ShouldBeNil)
			So(q.Enqueue(ctx, model.Record{RecordID: "rec-1"}), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then workers drain the remainder and exit", func() {
				So(waitFor(func() bool { return len(processor.seen()) == 1 }), ShouldBeTrue)
				So(pool.Stop(ctx), ShouldBeNil)
			})
		})
	})
}
