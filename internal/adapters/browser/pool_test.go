package browser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// withSlot runs fn under the same slot discipline as BrowserPool.WithTab.
func withSlot(ctx context.Context, s slot, fn func(ctx context.Context) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn(ctx)
}

func TestSlot_Backpressure_OnlyOneAtATime(t *testing.T) {
	// Arrange
	s := newSlot(1)
	var concurrent, maxConcurrent int32
	var wg sync.WaitGroup

	// Act
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = withSlot(context.Background(), s, func(ctx context.Context) error {
				current := atomic.AddInt32(&concurrent, 1)
				for {
					max := atomic.LoadInt32(&maxConcurrent)
					if current <= max || atomic.CompareAndSwapInt32(&maxConcurrent, max, current) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&concurrent, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	// Assert
	if maxConcurrent != 1 {
		t.Errorf("maxConcurrent: got %d, want 1", maxConcurrent)
	}
}

func TestSlot_ReleasedOnError(t *testing.T) {
	// Arrange
	s := newSlot(1)
	wantErr := errors.New("intentional error")

	// Act
	err := withSlot(context.Background(), s, func(ctx context.Context) error { return wantErr })

	// Assert
	if err != wantErr {
		t.Errorf("error: got %v, want %v", err, wantErr)
	}
	done := make(chan struct{})
	go func() {
		_ = withSlot(context.Background(), s, func(ctx context.Context) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("second call blocked: slot not released after error")
	}
}

func TestSlot_AcquireRespectsContext(t *testing.T) {
	// Arrange
	s := newSlot(1)
	if err := s.acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer s.release()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Act
	err := s.acquire(ctx)

	// Assert
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error: got %v, want context.DeadlineExceeded", err)
	}
}
