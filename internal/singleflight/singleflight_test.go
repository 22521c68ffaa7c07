package singleflight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	g := New[string]()
	if g == nil {
		t.Fatal("New() returned nil")
	}
	if g.m == nil {
		t.Error("New() did not initialize map")
	}
}

func TestDo(t *testing.T) {
	g := New[string]()

	val, err, shared := g.Do(context.Background(), "key1", func() (string, error) {
		return "hello", nil
	})

	if err != nil {
		t.Errorf("Do() returned error: %v", err)
	}
	if val != "hello" {
		t.Errorf("Do() returned %v, want hello", val)
	}
	if shared {
		t.Error("single caller should not report shared")
	}
	if g.Len() != 0 {
		t.Errorf("key still registered after Do returned, len=%d", g.Len())
	}
}

func TestDoError(t *testing.T) {
	g := New[int]()
	expectedErr := errors.New("test error")

	val, err, _ := g.Do(context.Background(), "key1", func() (int, error) {
		return 0, expectedErr
	})

	if err != expectedErr {
		t.Errorf("Do() returned error %v, want %v", err, expectedErr)
	}
	if val != 0 {
		t.Errorf("Do() returned %v, want 0", val)
	}
	if _, inFlight := g.Waiters("key1"); inFlight {
		t.Error("key still registered after failed call")
	}
}

func TestDoDuplicateCalls(t *testing.T) {
	g := New[int]()

	var calls int32
	release := make(chan struct{})
	fn := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	const callers = 5
	results := make([]int, callers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, _ = g.Do(context.Background(), "key", fn)
	}()
	waitFor(t, func() bool { _, ok := g.Waiters("key"); return ok })

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, _ = g.Do(context.Background(), "key", fn)
		}(i)
	}
	waitFor(t, func() bool { n, _ := g.Waiters("key"); return n == callers-1 })

	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fn called %d times, want 1", got)
	}
	for i, r := range results {
		if r != 42 {
			t.Errorf("caller %d got %d, want 42", i, r)
		}
	}
	if g.Len() != 0 {
		t.Error("key left registered after call settled")
	}
}

func TestDoRunsAgainAfterCompletion(t *testing.T) {
	g := New[int]()
	var calls int32
	fn := func() (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	first, _, _ := g.Do(context.Background(), "key", fn)
	second, _, _ := g.Do(context.Background(), "key", fn)

	if first != 1 || second != 2 {
		t.Errorf("got %d and %d, want 1 and 2", first, second)
	}
}

func TestDoWaiterContextCancelled(t *testing.T) {
	g := New[string]()
	release := make(chan struct{})
	defer close(release)

	go func() {
		_, _, _ = g.Do(context.Background(), "key", func() (string, error) {
			<-release
			return "done", nil
		})
	}()
	waitFor(t, func() bool { _, ok := g.Waiters("key"); return ok })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err, shared := g.Do(ctx, "key", func() (string, error) {
		t.Error("duplicate fn must not run")
		return "", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if !shared {
		t.Error("waiter should report shared")
	}
}

func TestDoPanicIsReturnedAsError(t *testing.T) {
	g := New[int]()
	_, err, _ := g.Do(context.Background(), "boom", func() (int, error) {
		panic("kaboom")
	})
	if err == nil {
		t.Fatal("expected error from panicking call")
	}
	if g.Len() != 0 {
		t.Error("key left registered after panic")
	}
}

func TestForgetKey(t *testing.T) {
	g := New[int]()
	g.m["stale"] = &call[int]{done: make(chan struct{})}
	g.ForgetKey("stale")
	if g.Len() != 0 {
		t.Error("ForgetKey did not remove the key")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
