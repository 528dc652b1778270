package safego_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gomartian/adapter/internal/safego"
)

func TestSafeGoRecoversPanic(t *testing.T) {
	done := make(chan struct{})
	safego.SafeGo("test", func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine never completed")
	}
}

func TestSafeGoWithContextRecoversPanic(t *testing.T) {
	done := make(chan struct{})
	safego.SafeGoWithContext("test", context.Background(), func(context.Context) {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine never completed")
	}
}

func TestSafeGoWithWaitGroupRecoversPanicAndStillDone(t *testing.T) {
	var wg sync.WaitGroup
	ran := false
	safego.SafeGoWithWaitGroup("test", &wg, func() {
		ran = true
		panic("boom")
	})

	wg.Wait()
	require.True(t, ran)
}
