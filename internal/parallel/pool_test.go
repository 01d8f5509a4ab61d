package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForRunsEveryIndex(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	for _, n := range []int{0, 1, 3, 100, 1000} {
		hits := make([]atomic.Int32, n)
		p.For(n, func(i int) { hits[i].Add(1) })
		for i := range hits {
			if got := hits[i].Load(); got != 1 {
				t.Fatalf("For(%d): index %d ran %d times, want 1", n, i, got)
			}
		}
	}
}

func TestForPanicPropagates(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()

	var ran atomic.Int32
	defer func() {
		if r := recover(); r != "bad group" {
			t.Errorf("recover() = %v, want bad group", r)
		}
		if ran.Load() != 8 {
			t.Errorf("%d items ran, want all 8", ran.Load())
		}
	}()
	p.For(8, func(i int) {
		ran.Add(1)
		if i == 3 {
			panic("bad group")
		}
	})
}

func TestClosedPoolRunsInline(t *testing.T) {
	p := NewWorkerPool(0)
	if p.Workers() < 1 {
		t.Fatalf("Workers() = %d", p.Workers())
	}
	p.Close()
	p.Close()
	if p.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}
	sum := 0
	p.For(4, func(i int) { sum += i })
	if sum != 6 {
		t.Errorf("sum = %d, want 6", sum)
	}
}
