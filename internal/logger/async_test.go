package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// syncBuffer is a goroutine-safe bytes.Buffer for handler output.
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

func TestAsyncHandlerDeliversRecords(t *testing.T) {
	buf := &syncBuffer{}
	inner := slog.NewJSONHandler(buf, nil)
	h := NewAsyncHandler(inner, 16, 1)

	log := slog.New(h)
	log.Info("hello", "key", "value")
	h.Close()

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"key":"value"`) {
		t.Fatalf("record not delivered: %s", out)
	}
}

func TestAsyncHandlerKeepsWithAttrs(t *testing.T) {
	buf := &syncBuffer{}
	h := NewAsyncHandler(slog.NewJSONHandler(buf, nil), 16, 1)

	log := slog.New(h).With("service", "promptforge")
	log.Info("tagged")
	h.Close()

	if !strings.Contains(buf.String(), `"service":"promptforge"`) {
		t.Fatalf("WithAttrs attribute lost: %s", buf.String())
	}
}

func TestAsyncHandlerDropsOnOverflow(t *testing.T) {
	// An inner handler that blocks until released, so the queue backs up.
	release := make(chan struct{})
	inner := &blockingHandler{release: release}
	h := NewAsyncHandler(inner, 1, 1)

	var rec slog.Record
	// One record in flight, one in the buffer, the rest dropped.
	for i := 0; i < 10; i++ {
		_ = h.Handle(context.Background(), rec)
	}
	close(release)
	h.Close()

	if h.DroppedCount() == 0 {
		t.Fatal("expected dropped records under backpressure")
	}
}

type blockingHandler struct {
	release chan struct{}
}

func (b *blockingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (b *blockingHandler) Handle(context.Context, slog.Record) error {
	<-b.release
	return nil
}

func (b *blockingHandler) WithAttrs([]slog.Attr) slog.Handler { return b }
func (b *blockingHandler) WithGroup(string) slog.Handler      { return b }
