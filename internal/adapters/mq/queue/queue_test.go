package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/instrank/internal/domain/model"
)

func submission(id string) model.Submission {
	return model.Submission{SubmissionID: id, InstitutionID: "inst-" + id, SubmittedAt: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, submission("s1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.SubmissionID != "s1" {
		t.Errorf("expected s1, got %v", got.SubmissionID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, id := range []string{"s1", "s2"} {
		if !q.Enqueue(ctx, submission(id)) {
			t.Errorf("expected enqueue of %s to succeed", id)
		}
	}
	if q.Enqueue(ctx, submission("s3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, submission("s1")) {
		t.Error("expected enqueue with cancelled context to fail")
	}
	if _, ok := <-q.Dequeue(ctx); ok {
		t.Error("expected dequeue channel to close for cancelled context")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	const producers, perProducer = 10, 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(ctx, submission(fmt.Sprintf("s%d_%d", id, j))) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	consumed := make(chan string, producers*perProducer)
	var consumers sync.WaitGroup
	for i := 0; i < 4; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for s := range q.Dequeue(ctx) {
				consumed <- s.SubmissionID
			}
		}()
	}

	wg.Wait()
	_ = q.Close()
	consumers.Wait()
	close(consumed)

	seen := make(map[string]bool)
	for id := range consumed {
		if seen[id] {
			t.Errorf("submission %s delivered twice", id)
		}
		seen[id] = true
	}
	if len(seen) != producers*perProducer {
		t.Errorf("expected %d submissions, got %d", producers*perProducer, len(seen))
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, submission("s1")) || !q.Enqueue(ctx, submission("s2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, submission("s3")) {
		t.Error("expected enqueue to fail after closing")
	}

	// Queued submissions drain before the channel closes.
	var drained []string
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
	for done := false; !done; {
		select {
		case s, ok := <-ch:
			if !ok {
				done = true
				break
			}
			drained = append(drained, s.SubmissionID)
		case <-timeout:
			t.Fatal("expected dequeue channel to close within timeout")
		}
	}
	if len(drained) != 2 {
		t.Errorf("expected 2 drained submissions, got %v", drained)
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
