package keyload

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gate 让回源停在读取之后，直到 release 关闭。
type gate struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) fetch(val string) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		g.calls.Add(1)
		g.once.Do(func() { close(g.started) })
		select {
		case <-g.release:
			return val, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func TestGroup_StoresWhenVersionUnchanged(t *testing.T) {
	g := New(time.Second)
	var stored any
	v, err := g.Do(context.Background(), "k", "k", func(context.Context) (any, error) {
		return "fresh", nil
	}, func(v any) { stored = v })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, "fresh", stored)
}

func TestGroup_InvalidateDuringFetchSkipsStore(t *testing.T) {
	g := New(time.Second)
	gt := newGate()
	var stored atomic.Bool

	done := make(chan any, 1)
	go func() {
		v, _ := g.Do(context.Background(), "k", "k", gt.fetch("old"), func(any) { stored.Store(true) })
		done <- v
	}()
	<-gt.started
	g.Invalidate("k")
	close(gt.release)

	assert.Equal(t, "old", <-done)
	assert.False(t, stored.Load(), "result fetched before invalidation must not be stored")
}

func TestGroup_CallsAfterInvalidateDoNotJoinOldFetch(t *testing.T) {
	g := New(time.Second)
	old := newGate()

	oldDone := make(chan struct{})
	go func() {
		defer close(oldDone)
		_, _ = g.Do(context.Background(), "k", "k", old.fetch("old"), nil)
	}()
	<-old.started
	g.Invalidate("k")

	var stored any
	v, err := g.Do(context.Background(), "k", "k", func(context.Context) (any, error) {
		return "new", nil
	}, func(v any) { stored = v })
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	assert.Equal(t, "new", stored)

	close(old.release)
	<-oldDone
}

func TestGroup_DeduplicatesConcurrentCalls(t *testing.T) {
	g := New(time.Second)
	gt := newGate()

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := g.Do(context.Background(), "k", "k", gt.fetch("v"), nil)
			assert.NoError(t, err)
			assert.Equal(t, "v", v)
		}()
	}
	<-gt.started
	time.Sleep(20 * time.Millisecond)
	close(gt.release)
	wg.Wait()

	assert.Equal(t, int32(1), gt.calls.Load())
}

func TestGroup_CallerCancelDoesNotFailOthers(t *testing.T) {
	g := New(time.Second)
	gt := newGate()

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := g.Do(firstCtx, "k", "k", gt.fetch("v"), nil)
		firstErr <- err
	}()
	<-gt.started

	secondDone := make(chan struct{})
	var (
		secondVal any
		secondErr error
	)
	go func() {
		defer close(secondDone)
		secondVal, secondErr = g.Do(context.Background(), "k", "k", gt.fetch("unused"), nil)
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(gt.release)
	<-secondDone
	require.NoError(t, secondErr)
	assert.Equal(t, "v", secondVal)
	assert.Equal(t, int32(1), gt.calls.Load())
}

func TestGroup_FetchTimeout(t *testing.T) {
	g := New(20 * time.Millisecond)
	gt := newGate()
	defer close(gt.release)

	_, err := g.Do(context.Background(), "k", "k", gt.fetch("v"), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGroup_FetchErrorSkipsStore(t *testing.T) {
	g := New(time.Second)
	boom := errors.New("boom")
	_, err := g.Do(context.Background(), "k", "k", func(context.Context) (any, error) {
		return nil, boom
	}, func(any) { t.Error("store must not run on error") })
	assert.ErrorIs(t, err, boom)
}

func TestGroup_VersionsSurviveFolding(t *testing.T) {
	g := New(time.Second)
	before := g.Version("k")
	g.Invalidate("k")
	for i := range maxTracked + 10 {
		g.Invalidate("key-" + strconv.Itoa(i))
	}
	assert.NotEqual(t, before, g.Version("k"))

	v := g.Version("other")
	g.InvalidateAll()
	assert.Greater(t, g.Version("other"), v)
}
