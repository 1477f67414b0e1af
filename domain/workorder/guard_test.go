package workorder

import (
	"coilflow/domain"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestGuard(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should serialize holders of the same id", func(t *testing.T) {
		g := NewGuard()
		var inside, maxInside int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := g.Lock(context.Background(), 1)
				if err != nil {
					return
				}
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				release()
			}()
		}
		wg.Wait()
		Expect(atomic.LoadInt32(&maxInside)).To(BeEquivalentTo(1))
		Expect(g.size()).To(BeZero())
	})

	t.Run("should not block different ids", func(t *testing.T) {
		g := NewGuard()
		release1, err := g.Lock(context.Background(), 1)
		Expect(err).To(BeNil())
		defer release1()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		release2, err := g.Lock(ctx, 2)
		Expect(err).To(BeNil())
		release2()
	})

	t.Run("should time out waiting for a held id", func(t *testing.T) {
		g := NewGuard()
		release, err := g.Lock(context.Background(), 1)
		Expect(err).To(BeNil())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = g.Lock(ctx, 1)
		Expect(errors.Is(err, domain.ErrTimeout)).To(BeTrue())
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())

		release()
		release()
		Expect(g.size()).To(BeZero())

		release, err = g.Lock(context.Background(), 1)
		Expect(err).To(BeNil())
		release()
	})
}
