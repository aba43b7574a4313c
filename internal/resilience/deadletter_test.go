package resilience

import (
	"testing"
	"time"

	"acs/internal/command"
)

func TestDeadLetterQueue_PushAndPop(t *testing.T) {
	q := NewDeadLetterQueue(10)
	q.Push(DeadLetterEntry{Command: command.Command{Kind: command.KindCreateUser}, Reason: "boom", Attempts: 3, FailedAt: time.Now()})

	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
	entries := q.List()
	if len(entries) != 1 || entries[0].Reason != "boom" {
		t.Fatalf("List() = %+v", entries)
	}

	entry, ok := q.Pop()
	if !ok || entry.Reason != "boom" {
		t.Fatalf("Pop() = %+v, %v", entry, ok)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Pop", q.Len())
	}
	if _, ok := q.Pop(); ok {
		t.Error("expected Pop() on an empty queue to report false")
	}
}

func TestDeadLetterQueue_EvictsOldestAtCapacity(t *testing.T) {
	q := NewDeadLetterQueue(2)
	q.Push(DeadLetterEntry{Reason: "first"})
	q.Push(DeadLetterEntry{Reason: "second"})
	q.Push(DeadLetterEntry{Reason: "third"})

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	if q.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", q.Dropped())
	}
	entries := q.List()
	if entries[0].Reason != "second" || entries[1].Reason != "third" {
		t.Fatalf("expected the oldest entry evicted, got %+v", entries)
	}
}
