package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/apiprobe/pkg/output/events"
)

type mockEvent struct {
	eventType events.EventType
}

func (e mockEvent) EventType() events.EventType { return e.eventType }
func (e mockEvent) Timestamp() time.Time        { return time.Time{} }
func (e mockEvent) ScanID() string              { return "test-scan-123" }

type mockWriter struct {
	mu        sync.Mutex
	supported []events.EventType
	written   []events.Event
	flushes   atomic.Int32
	closes    atomic.Int32
	failWith  error
}

func (w *mockWriter) Write(e events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failWith != nil {
		return w.failWith
	}
	w.written = append(w.written, e)
	return nil
}

func (w *mockWriter) Flush() error { w.flushes.Add(1); return nil }
func (w *mockWriter) Close() error { w.closes.Add(1); return nil }

func (w *mockWriter) SupportsEvent(et events.EventType) bool {
	if len(w.supported) == 0 {
		return true
	}
	for _, s := range w.supported {
		if s == et {
			return true
		}
	}
	return false
}

func (w *mockWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.written)
}

type mockHook struct {
	types    []events.EventType
	calls    atomic.Int32
	delay    time.Duration
	failWith error
	closed   atomic.Bool
}

func (h *mockHook) OnEvent(ctx context.Context, e events.Event) error {
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.calls.Add(1)
	return h.failWith
}

func (h *mockHook) EventTypes() []events.EventType { return h.types }

type closingHook struct{ mockHook }

func (h *closingHook) Close() error { h.closed.Store(true); return nil }

func TestDispatch_RoutesByEventType(t *testing.T) {
	d := New(Config{})
	all := &mockWriter{}
	onlyResults := &mockWriter{supported: []events.EventType{events.EventTypeResult}}
	d.RegisterWriter(all)
	d.RegisterWriter(onlyResults)

	hookAll := &mockHook{}
	hookComplete := &mockHook{types: []events.EventType{events.EventTypeComplete}}
	d.RegisterHook(hookAll)
	d.RegisterHook(hookComplete)

	ctx := context.Background()
	for _, et := range []events.EventType{events.EventTypeStart, events.EventTypeResult, events.EventTypeResult, events.EventTypeComplete} {
		require.NoError(t, d.Dispatch(ctx, mockEvent{et}))
	}

	assert.Equal(t, 4, all.count())
	assert.Equal(t, 2, onlyResults.count())
	assert.EqualValues(t, 4, hookAll.calls.Load())
	assert.EqualValues(t, 1, hookComplete.calls.Load())
}

func TestDispatch_FailuresDoNotStopOthers(t *testing.T) {
	d := New(Config{})
	bad := &mockWriter{failWith: errors.New("disk full")}
	good := &mockWriter{}
	d.RegisterWriter(bad)
	d.RegisterWriter(good)

	badHook := &mockHook{failWith: errors.New("collector down")}
	goodHook := &mockHook{}
	d.RegisterHook(badHook)
	d.RegisterHook(goodHook)

	require.NoError(t, d.Dispatch(context.Background(), mockEvent{events.EventTypeResult}))

	assert.Equal(t, 1, good.count())
	assert.EqualValues(t, 1, badHook.calls.Load())
	assert.EqualValues(t, 1, goodHook.calls.Load())
}

func TestClose_WaitsForAsyncHooks(t *testing.T) {
	d := New(Config{Async: true})
	h := &mockHook{delay: 150 * time.Millisecond}
	d.RegisterHook(h)

	require.NoError(t, d.Dispatch(context.Background(), mockEvent{events.EventTypeResult}))

	start := time.Now()
	require.NoError(t, d.Close())
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.EqualValues(t, 1, h.calls.Load())
}

func TestClose_FlushesWritersAndClosesHooks(t *testing.T) {
	d := New(Config{})
	w := &mockWriter{}
	h := &closingHook{}
	d.RegisterWriter(w)
	d.RegisterHook(h)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.EqualValues(t, 1, w.flushes.Load())
	assert.EqualValues(t, 1, w.closes.Load())
	assert.True(t, h.closed.Load())
}

func TestDispatch_AfterCloseIsDropped(t *testing.T) {
	d := New(Config{})
	w := &mockWriter{}
	d.RegisterWriter(w)
	require.NoError(t, d.Close())

	require.NoError(t, d.Dispatch(context.Background(), mockEvent{events.EventTypeResult}))
	assert.Equal(t, 0, w.count())
}

func TestDispatch_ConcurrentWithClose(t *testing.T) {
	d := New(Config{Async: true})
	w := &mockWriter{}
	d.RegisterWriter(w)
	d.RegisterHook(&mockHook{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), mockEvent{events.EventTypeResult})
		}()
	}
	_ = d.Close()
	wg.Wait()

	assert.LessOrEqual(t, w.count(), 20)
}

func TestFlush(t *testing.T) {
	d := New(Config{})
	w1, w2 := &mockWriter{}, &mockWriter{}
	d.RegisterWriter(w1)
	d.RegisterWriter(w2)

	require.NoError(t, d.Flush())
	assert.EqualValues(t, 1, w1.flushes.Load())
	assert.EqualValues(t, 1, w2.flushes.Load())
}
