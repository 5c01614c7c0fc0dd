package cli

import (
	"bytes"
	"context"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandlerDefaultsWriter(t *testing.T) {
	h := NewInterruptHandler(nil)
	assert.NotNil(t, h.writer)
	assert.False(t, h.WasInterrupted())
}

func TestHandleInterruptsOnSignal(t *testing.T) {
	out := &syncBuffer{}
	h := NewInterruptHandler(out)

	ctx, cancel := h.HandleInterrupts(context.Background())
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not canceled by the signal")
	}
	assert.True(t, h.WasInterrupted())
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("Batch interrupted"))
	}, time.Second, 10*time.Millisecond)
}

func TestHandleInterruptsParentCancel(t *testing.T) {
	out := &syncBuffer{}
	h := NewInterruptHandler(out)

	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := h.HandleInterrupts(parent)
	defer cancel()

	cancelParent()
	<-ctx.Done()
	assert.False(t, h.WasInterrupted())
	assert.Empty(t, out.String())
}

func TestInterruptPrintsOnce(t *testing.T) {
	out := &syncBuffer{}
	h := NewInterruptHandler(out)
	h.interrupt()
	first := out.String()
	h.interrupt()
	assert.Equal(t, first, out.String())
}
