package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/radar/internal/adapters/mq/queue"
	"github.com/okian/radar/internal/adapters/mq/worker"
)

// recordingProcessor remembers every entity it processed.
type recordingProcessor struct {
	mu     sync.Mutex
	seen   []string
	errors map[string]error
	delay  time.Duration
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{errors: map[string]error{}}
}

func (p *recordingProcessor) Process(ctx context.Context, j queue.Job) error {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, j.EntityID)
	return p.errors[j.EntityID]
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
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

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over an in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		proc := newRecordingProcessor()
		w := worker.NewInMemoryWorker(q, proc, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs are enqueued", func() {
			q.Enqueue(ctx, queue.Job{ID: "j1", EntityID: "a"})
			q.Enqueue(ctx, queue.Job{ID: "j2", EntityID: "b"})

			convey.Convey("Then each is processed", func() {
				convey.So(waitFor(func() bool { return proc.count() == 2 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a job fails", func() {
			proc.errors["bad"] = errors.New("aggregate failed")
			q.Enqueue(ctx, queue.Job{ID: "j1", EntityID: "bad"})
			q.Enqueue(ctx, queue.Job{ID: "j2", EntityID: "good"})

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitFor(func() bool { return proc.count() == 2 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops and a second shutdown is harmless", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestInMemoryWorker_JobTimeout(t *testing.T) {
	convey.Convey("Given a worker with a job timeout", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		deadlines := make(chan bool, 1)
		proc := worker.ProcessorFunc(func(ctx context.Context, _ queue.Job) error {
			_, ok := ctx.Deadline()
			deadlines <- ok
			return nil
		})
		w := worker.NewInMemoryWorker(q, proc, worker.WithJobTimeout(time.Second))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)
		q.Enqueue(ctx, queue.Job{ID: "j1", EntityID: "a"})

		convey.Convey("Then the job context carries a deadline", func() {
			select {
			case ok := <-deadlines:
				convey.So(ok, convey.ShouldBeTrue)
			case <-time.After(2 * time.Second):
				convey.So("job never ran", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of four workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		proc := newRecordingProcessor()
		proc.delay = 5 * time.Millisecond
		pool := worker.NewPool(4, q, proc)
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When many jobs are enqueued", func() {
			for i := 0; i < 40; i++ {
				convey.So(q.Enqueue(ctx, queue.Job{ID: fmt.Sprint(i), EntityID: fmt.Sprintf("e%d", i)}), convey.ShouldBeTrue)
			}

			convey.Convey("Then all are processed exactly once", func() {
				convey.So(waitFor(func() bool { return pool.Processed() == 40 }), convey.ShouldBeTrue)
				convey.So(proc.count(), convey.ShouldEqual, 40)
			})
		})

		convey.Convey("When the pool shuts down", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then the queue is closed", func() {
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(q.Enqueue(ctx, queue.Job{ID: "late", EntityID: "late"}), convey.ShouldBeFalse)
			})
		})
	})
}
