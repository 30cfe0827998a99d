// Package queue holds pending verifications ordered by target block height.
package queue

import (
	"container/heap"
	"sync"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
)

// Queue is a min-heap of pending verifications keyed by block height.
// Entries with equal heights leave in arrival order. It is safe for
// concurrent use.
type Queue struct {
	mu    sync.Mutex
	items entryHeap
	seq   uint64
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue adds entries.
func (q *Queue) Enqueue(entries ...model.PendingVerification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range entries {
		q.seq++
		heap.Push(&q.items, entry{pending: e, seq: q.seq})
	}
}

// Peek returns the entry with the lowest block height.
func (q *Queue) Peek() (model.PendingVerification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return model.PendingVerification{}, false
	}
	return q.items[0].pending, true
}

// Dequeue removes and returns the head.
func (q *Queue) Dequeue() (model.PendingVerification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return model.PendingVerification{}, false
	}
	e := heap.Pop(&q.items).(entry)
	return e.pending, true
}

// DequeueUpTo removes the head only if its block height is at most height.
func (q *Queue) DequeueUpTo(height uint32) (model.PendingVerification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 || q.items[0].pending.BlockHeight > height {
		return model.PendingVerification{}, false
	}
	e := heap.Pop(&q.items).(entry)
	return e.pending, true
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// MinHeight returns the head's block height.
func (q *Queue) MinHeight() (uint32, bool) {
	head, ok := q.Peek()
	return head.BlockHeight, ok
}

// Snapshot copies the pending entries in heap order.
func (q *Queue) Snapshot() []model.PendingVerification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.PendingVerification, len(q.items))
	for i, e := range q.items {
		out[i] = e.pending
	}
	return out
}

type entry struct {
	pending model.PendingVerification
	seq     uint64
}

type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].pending.BlockHeight != h[j].pending.BlockHeight {
		return h[i].pending.BlockHeight < h[j].pending.BlockHeight
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = entry{}
	*h = old[:n-1]
	return e
}
