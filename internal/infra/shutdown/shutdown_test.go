package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestHandler_Trigger_RunsHooksInReverse(t *testing.T) {
	h := NewHandler(5 * time.Second)

	var mu sync.Mutex
	order := make([]int, 0, 3)
	for i := 1; i <= 3; i++ {
		i := i
		h.OnShutdown(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()

	h.Trigger()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after Trigger")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Errorf("hook order = %v, want [3 2 1]", order)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait")
	}
}

func TestHandler_Trigger_Idempotent(t *testing.T) {
	h := NewHandler(time.Second)

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()

	h.Trigger()
	h.Trigger() // must not panic

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return")
	}
}

func TestHandler_HookErrorReturned(t *testing.T) {
	h := NewHandler(time.Second)
	want := errors.New("close failed")

	h.OnShutdown(func(ctx context.Context) error { return want })
	h.OnShutdown(func(ctx context.Context) error { return nil })

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()
	h.Trigger()

	select {
	case err := <-errCh:
		if !errors.Is(err, want) {
			t.Errorf("Wait err = %v, want %v", err, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return")
	}
}

func TestHandler_HooksGetTimeoutContext(t *testing.T) {
	h := NewHandler(50 * time.Millisecond)

	var deadlineSet bool
	h.OnShutdown(func(ctx context.Context) error {
		_, deadlineSet = ctx.Deadline()
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()
	h.Trigger()
	<-errCh

	if !deadlineSet {
		t.Error("hook context has no deadline")
	}
}

func TestHandler_ConcurrentRegistration(t *testing.T) {
	h := NewHandler(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown(func(ctx context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != 10 {
		t.Errorf("hooks = %d, want 10", len(h.hooks))
	}
}
