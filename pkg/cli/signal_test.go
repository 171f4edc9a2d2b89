package cli

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSignalContext_FirstSignalCancels(t *testing.T) {
	sig := make(chan os.Signal, 1)
	var out syncBuffer
	ctx, cancel := signalContextWithNotifier(context.Background(), time.Second, &out, sig, func(int) {
		t.Error("exit must not be called on first signal")
	})
	defer cancel()

	sig <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled")
	}
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("Interrupt received"))
	}, time.Second, 10*time.Millisecond)
}

func TestSignalContext_SecondSignalExits(t *testing.T) {
	sig := make(chan os.Signal, 1)
	exited := make(chan int, 1)
	ctx, cancel := signalContextWithNotifier(context.Background(), 5*time.Second, nil, sig, func(code int) {
		exited <- code
	})
	defer cancel()

	sig <- os.Interrupt
	<-ctx.Done()
	sig <- os.Interrupt

	select {
	case code := <-exited:
		assert.Equal(t, 1, code)
	case <-time.After(2 * time.Second):
		t.Fatal("exit not called")
	}
}

func TestSignalContext_ParentCancel(t *testing.T) {
	parent, stop := context.WithCancel(context.Background())
	ctx, cancel := signalContextWithNotifier(parent, time.Second, nil, make(chan os.Signal, 1), func(int) {
		t.Error("unexpected exit")
	})
	defer cancel()

	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("parent cancellation not propagated")
	}
}
