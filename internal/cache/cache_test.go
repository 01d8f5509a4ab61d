package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New[string, int](0, nil)
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get() on empty cache returned ok")
	}
	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %v, %v, want 2, true", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a was used recently and should remain")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
}

func TestGetOrBuild(t *testing.T) {
	c := New[string, int](0, nil)
	var builds atomic.Int32
	build := func() (int, error) {
		builds.Add(1)
		return 7, nil
	}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := c.GetOrBuild("k", build); err != nil || v != 7 {
				t.Errorf("GetOrBuild() = %v, %v", v, err)
			}
		}()
	}
	wg.Wait()
	if builds.Load() != 1 {
		t.Errorf("build called %d times, want 1", builds.Load())
	}
	s := c.Stats()
	if s.Hits != 15 || s.Misses != 1 {
		t.Errorf("Stats() = %+v, want 15 hits 1 miss", s)
	}
}

func TestGetOrBuildError(t *testing.T) {
	c := New[string, int](0, nil)
	boom := errors.New("boom")
	if _, err := c.GetOrBuild("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("GetOrBuild() error = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Error("failed build was stored")
	}
}

func TestDeleteClear(t *testing.T) {
	var released int
	c := New[int, int](0, func(int, int) { released++ })
	for i := range 4 {
		c.Set(i, i)
	}
	if !c.Delete(2) || c.Delete(2) {
		t.Error("Delete() should succeed once")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
	if released != 4 {
		t.Errorf("onEvict called %d times, want 4", released)
	}
	c.Set(9, 9)
	if v, ok := c.Get(9); !ok || v != 9 {
		t.Error("cache unusable after Clear")
	}
}
