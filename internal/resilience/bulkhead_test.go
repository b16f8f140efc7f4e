package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavishGent/routegov/internal/config"
)

func TestNewBulkheadDefaults(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{})
	st := b.Stats()
	if st.MaxConcurrent != 8 || st.MaxQueue != 32 {
		t.Errorf("defaults = %d/%d, want 8/32", st.MaxConcurrent, st.MaxQueue)
	}
	if b.acquireTimeout != 2*time.Second {
		t.Errorf("acquireTimeout = %v, want 2s", b.acquireTimeout)
	}

	noQueue := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 1, MaxQueue: -1})
	if got := noQueue.Stats().MaxQueue; got != 0 {
		t.Errorf("MaxQueue = %d, want 0", got)
	}
}

func TestBulkheadExecute(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 2, MaxQueue: 1, AcquireTimeout: time.Second})

	got, err := b.Execute(context.Background(), func(context.Context) (any, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Fatalf("Execute() = %v, %v", got, err)
	}
	if st := b.Stats(); st.Executed != 1 || st.Active != 0 {
		t.Errorf("stats = %+v", st)
	}
}

// fill occupies every slot until release is closed.
func fill(t *testing.T, b *Bulkhead, n int) (release func()) {
	t.Helper()
	gate := make(chan struct{})
	var started sync.WaitGroup
	started.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			_, _ = b.Execute(context.Background(), func(context.Context) (any, error) {
				started.Done()
				<-gate
				return nil, nil
			})
		}()
	}
	started.Wait()
	return func() { close(gate) }
}

func TestBulkheadRejectsWhenQueueFull(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 1, MaxQueue: -1, AcquireTimeout: time.Second})
	release := fill(t, b, 1)
	defer release()

	_, err := b.Execute(context.Background(), succeed)
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("err = %v, want ErrBulkheadFull", err)
	}
	if got := b.Stats().Rejected; got != 1 {
		t.Errorf("Rejected = %d, want 1", got)
	}
}

func TestBulkheadAcquireTimeout(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 1, MaxQueue: 1, AcquireTimeout: 20 * time.Millisecond})
	release := fill(t, b, 1)
	defer release()

	_, err := b.Execute(context.Background(), succeed)
	if !errors.Is(err, ErrBulkheadTimeout) {
		t.Errorf("err = %v, want ErrBulkheadTimeout", err)
	}
}

func TestBulkheadQueuedCallerRuns(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 1, MaxQueue: 1, AcquireTimeout: time.Second})
	release := fill(t, b, 1)

	done := make(chan error, 1)
	go func() {
		_, err := b.Execute(context.Background(), succeed)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	release()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("queued call: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("queued call never ran")
	}
}

func TestBulkheadContextCancel(t *testing.T) {
	b := NewBulkhead(config.BulkheadConfig{MaxConcurrent: 1, MaxQueue: 1, AcquireTimeout: time.Second})
	release := fill(t, b, 1)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := b.Execute(ctx, succeed)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
