package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/radar/internal/domain/model"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(*testing.T) Store {
		return NewMemoryStore(WithClock(testClock))
	})
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store", t, func() {
		store := NewMemoryStore()

		Convey("Returned signals do not alias stored state", func() {
			So(store.SaveEntitySignals(ctx, model.Signals{EntityID: "a", Tags: []string{"x"}, Metadata: map[string]string{"k": "v"}}), ShouldBeNil)
			got, _, _ := store.GetEntitySignals(ctx, "a")
			got.Tags[0] = "mutated"
			got.Metadata["k"] = "mutated"

			again, _, _ := store.GetEntitySignals(ctx, "a")
			So(again.Tags, ShouldResemble, []string{"x"})
			So(again.Metadata["k"], ShouldEqual, "v")
		})

		Convey("Concurrent writers leave a consistent index", func() {
			var wg sync.WaitGroup
			for w := 0; w < 8; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < 50; i++ {
						id := fmt.Sprintf("e%d", i)
						_ = store.SaveEntitySignals(ctx, model.Signals{EntityID: id, MomentumScore: float64(w) / 10})
					}
				}(w)
			}
			wg.Wait()

			n, err := store.CountSignals(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 50)
			top, err := store.TopByMomentum(ctx, 100)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 50)
		})
	})
}
