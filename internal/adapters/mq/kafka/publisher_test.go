package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/radar/internal/domain/model"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafkago.Message
	errs   []error
	calls  int
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if len(w.errs) > 0 {
		err := w.errs[0]
		w.errs = w.errs[1:]
		if err != nil {
			return err
		}
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()
	ev := model.Event{
		ID:        "ev-1",
		EntityID:  "artist-1",
		Type:      model.EventPressMention,
		Date:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Weight:    1.5,
		Source:    model.SourceCoverage,
		CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	Convey("Given a publisher over a fake writer", t, func() {
		w := &fakeWriter{}
		p := NewPublisherWithWriter(w, WithWriteTimeout(time.Second))

		Convey("When an event is published", func() {
			So(p.Publish(ctx, ev), ShouldBeNil)

			Convey("Then it is keyed by entity and JSON encoded", func() {
				So(len(w.msgs), ShouldEqual, 1)
				So(string(w.msgs[0].Key), ShouldEqual, "artist-1")
				var decoded model.Event
				So(json.Unmarshal(w.msgs[0].Value, &decoded), ShouldBeNil)
				So(decoded.ID, ShouldEqual, "ev-1")
				So(decoded.Weight, ShouldEqual, 1.5)
				So(string(w.msgs[0].Headers[0].Value), ShouldEqual, "coverage")
			})
		})

		Convey("When the leader is briefly unavailable", func() {
			w.errs = []error{kafkago.LeaderNotAvailable}
			So(p.Publish(ctx, ev), ShouldBeNil)

			Convey("Then the write is retried", func() {
				So(w.calls, ShouldEqual, 2)
				So(len(w.msgs), ShouldEqual, 1)
			})
		})

		Convey("When the write fails for good", func() {
			boom := errors.New("broker unreachable")
			w.errs = []error{boom}
			err := p.Publish(ctx, ev)

			Convey("Then it is not retried", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(w.calls, ShouldEqual, 1)
			})
		})

		Convey("Close closes the writer", func() {
			So(p.Close(), ShouldBeNil)
			So(w.closed, ShouldBeTrue)
		})
	})
}
