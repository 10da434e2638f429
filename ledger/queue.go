package ledger

import "math/big"

// RateChangeEntry records that, from the previous queue boundary up to and
// including UntilEpoch, a rail's rate was Rate — spec.md §4.A.
type RateChangeEntry struct {
	Rate       *big.Int
	UntilEpoch *big.Int
}

// RateChangeQueue is a FIFO of RateChangeEntry, backed by a slice with a
// head index rather than a linked list — spec.md §9's design note prefers an
// owned vector-plus-head-index (or deque) over the original's embedded
// mapping. Entries are small and by-value.
type RateChangeQueue struct {
	entries []RateChangeEntry
	head    int
}

func newRateChangeQueue() *RateChangeQueue {
	return &RateChangeQueue{}
}

func (q *RateChangeQueue) Enqueue(rate, untilEpoch *big.Int) {
	q.entries = append(q.entries, RateChangeEntry{
		Rate:       new(big.Int).Set(rate),
		UntilEpoch: new(big.Int).Set(untilEpoch),
	})
}

// Dequeue removes and returns the head entry, reporting false if empty.
func (q *RateChangeQueue) Dequeue() (RateChangeEntry, bool) {
	if q.IsEmpty() {
		return RateChangeEntry{}, false
	}
	e := q.entries[q.head]
	q.head++
	if q.head == len(q.entries) {
		q.entries = q.entries[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.entries) {
		// compact once the consumed prefix dominates the backing array
		q.entries = append([]RateChangeEntry(nil), q.entries[q.head:]...)
		q.head = 0
	}
	return e, true
}

func (q *RateChangeQueue) Peek() (RateChangeEntry, bool) {
	if q.IsEmpty() {
		return RateChangeEntry{}, false
	}
	return q.entries[q.head], true
}

func (q *RateChangeQueue) IsEmpty() bool {
	return q.head >= len(q.entries)
}

func (q *RateChangeQueue) Len() int {
	return len(q.entries) - q.head
}
