package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"propledger/internal/amqp"
	applog "propledger/internal/log"
)

type fakeReports struct {
	mu          sync.Mutex
	handled     []*amqp.TransactionChangedMessage
	regenerated int
	handleErr   error
}

func (f *fakeReports) HandleTransactionChanged(_ context.Context, msg *amqp.TransactionChangedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handled = append(f.handled, msg)
	return f.handleErr
}

func (f *fakeReports) RegenerateRecent(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regenerated++
	return nil
}

func (f *fakeReports) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handled), f.regenerated
}

// fakeConsumer delivers its messages, then blocks until cancelled or
// returns err when set.
type fakeConsumer struct {
	msgs []*amqp.TransactionChangedMessage
	err  error
}

func (c *fakeConsumer) ConsumeTransactionChanged(ctx context.Context, handler amqp.Handler) error {
	for _, m := range c.msgs {
		_ = handler(ctx, m)
	}
	if c.err != nil {
		return c.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReportWorkerRun(t *testing.T) {
	reports := &fakeReports{}
	consumer := &fakeConsumer{msgs: []*amqp.TransactionChangedMessage{
		amqp.NewTransactionChangedMessage("o1", "tx1", amqp.ActionCreated, 2025, 3),
		amqp.NewTransactionChangedMessage("o1", "tx2", amqp.ActionDeleted, 2025, 2),
	}}
	w := NewReportWorker(reports, consumer, 10*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool {
		handled, regenerated := reports.counts()
		return handled == 2 && regenerated >= 2
	})
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
}

func TestReportWorkerRunWithoutConsumer(t *testing.T) {
	reports := &fakeReports{}
	w := NewReportWorker(reports, nil, 10*time.Millisecond, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, regenerated := reports.counts(); regenerated < 2 {
		t.Fatalf("expected startup and ticker regenerations, got %d", regenerated)
	}
}

func TestReportWorkerConsumerFailure(t *testing.T) {
	w := NewReportWorker(&fakeReports{}, &fakeConsumer{err: errors.New("channel closed")}, time.Hour, quietLogger())
	err := w.Run(context.Background())
	if err == nil || err.Error() != "consume transaction changes: channel closed" {
		t.Fatalf("Run = %v", err)
	}
}

func TestReportWorkerHandleMessageWrapsError(t *testing.T) {
	reports := &fakeReports{handleErr: errors.New("db locked")}
	w := NewReportWorker(reports, nil, time.Hour, quietLogger())
	err := w.HandleMessage(context.Background(), amqp.NewTransactionChangedMessage("o1", "tx1", amqp.ActionUpdated, 2025, 4))
	if err == nil || !errors.Is(err, reports.handleErr) {
		t.Fatalf("HandleMessage = %v", err)
	}
}
