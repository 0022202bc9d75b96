package safe

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestGo_RecoversPanicWithoutCrashingProcess(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	Go(func() {
		defer wg.Done()
		panic("boom")
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panicking goroutine never returned control")
	}
}

func TestGoCtx_RunsWithBackgroundContextWhenNilGiven(t *testing.T) {
	received := make(chan context.Context, 1)

	GoCtx(nil, func(ctx context.Context) {
		received <- ctx
	})

	select {
	case ctx := <-received:
		if ctx == nil {
			t.Fatal("GoCtx must substitute context.Background() for a nil context")
		}
	case <-time.After(time.Second):
		t.Fatal("goroutine never ran")
	}
}

func TestGoCtx_RecoversPanic(t *testing.T) {
	done := make(chan struct{})

	GoCtx(context.Background(), func(ctx context.Context) {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panicking goroutine never returned control")
	}
}
