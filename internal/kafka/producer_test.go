package kafka

import (
	"context"
	"testing"
	"time"
)

// Shutdown closes the inbox exactly once whether Close, context
// cancellation, or both race; the flush loop must still terminate.
func TestProducer_closeThenCancelShutsDownOnce(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "test-topic", 4)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	p.Close()
	cancel()
	p.Close() // repeated close is a no-op

	done := make(chan struct{})
	go func() {
		p.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flush loop did not terminate")
	}
}

func TestProducer_cancelAloneShutsDown(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "test-topic", 4)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		p.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flush loop did not terminate")
	}
}
