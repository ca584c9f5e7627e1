package hashwheel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// handleList is a sentinel-headed singly-linked FIFO, giving O(1)
// append (link) and O(1) bulk-drain (clear), over *Handle chains
// linked through Handle.next.
type handleList struct {
	head *Handle
	tail *Handle
}

func newHandleList() *handleList {
	sentinel := &Handle{}
	return &handleList{head: sentinel, tail: sentinel}
}

func (l *handleList) link(h *Handle) {
	l.tail.next = h
	l.tail = h
	h.next = nil
}

// clear detaches and returns the entire chain, resetting the list to
// empty. The returned chain's internal next pointers are untouched.
func (l *handleList) clear() (head *Handle) {
	head = l.head.next
	l.head.next = nil
	l.tail = l.head
	return
}

// bucket is one slot of the wheel: two FIFO queues (due, pending)
// guarded by a per-bucket CAS spinlock (acquire/release via
// atomic.CompareAndSwapInt32 + runtime.Gosched), so independent
// buckets don't serialize concurrent producers against each other.
type bucket struct {
	lock    int32
	due     *handleList
	pending *handleList
}

func newBucket() *bucket {
	return &bucket{due: newHandleList(), pending: newHandleList()}
}

func (b *bucket) acquire() {
	for !atomic.CompareAndSwapInt32(&b.lock, 0, 1) {
		runtime.Gosched()
	}
}

func (b *bucket) release() {
	atomic.StoreInt32(&b.lock, 0)
}

// add places h in the due queue if it owes no further revolutions, or
// the pending queue otherwise. Safe under concurrent producers.
func (b *bucket) add(h *Handle) {
	b.acquire()
	if atomic.LoadInt32(&h.remainingRounds) <= 0 {
		b.due.link(h)
	} else {
		b.pending.link(h)
	}
	b.release()
}

// expireDue drains the due queue and dispatches each live, actually-due
// handle to a bounded parallel pool of width maxParallel, then awaits
// every launched execution. Handles that report a further recurrence
// afterward are returned for the wheel's recurrence callback.
//
// The semaphore is a fresh buffered channel allocated on every call:
// cross-tick reuse would let a slow tick's in-flight work bleed into
// the next tick's budget.
func (b *bucket) expireDue(now time.Duration, maxParallel int, token CancelToken, onError func(error)) []*Handle {
	b.acquire()
	due := b.due.clear()
	b.release()

	if due == nil {
		return nil
	}

	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var recurred []*Handle

	for cur := due; cur != nil; {
		h := cur
		cur = cur.next
		h.next = nil

		if h.Canceled() {
			continue
		}
		if h.deadline() > now {
			// Defensive guard against re-insertion races: this handle
			// isn't actually due yet. Put it back for the next visit.
			b.add(h)
			continue
		}
		select {
		case <-token.Done():
			// Driver is shutting down: don't launch new work, but
			// don't lose the handle either.
			b.add(h)
			continue
		default:
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(h *Handle) {
			defer wg.Done()
			defer func() { <-sem }()
			h.expire(token, onError)
			if h.willRecur() {
				mu.Lock()
				recurred = append(recurred, h)
				mu.Unlock()
			}
		}(h)
	}
	wg.Wait()
	return recurred
}

// age snapshots the pending queue by draining it wholesale, decrements
// each live entry's remaining rounds, and re-adds it (to due if it has
// now reached zero, to pending otherwise). Draining the whole queue up
// front is what bounds the pass to the entries present at the start of
// aging: anything added concurrently lands in a fresh, empty pending
// list and is left for the next visit to this bucket.
func (b *bucket) age(token CancelToken) {
	select {
	case <-token.Done():
		return
	default:
	}

	b.acquire()
	snapshot := b.pending.clear()
	b.release()

	for cur := snapshot; cur != nil; {
		h := cur
		cur = cur.next
		h.next = nil

		if h.Canceled() {
			continue
		}
		atomic.AddInt32(&h.remainingRounds, -1)
		b.add(h)
	}
}

// unprocessed returns every handle still queued in this bucket,
// pending entries first, then due entries, leaving the bucket empty.
func (b *bucket) unprocessed() []*Handle {
	b.acquire()
	pending := b.pending.clear()
	due := b.due.clear()
	b.release()

	var out []*Handle
	for cur := pending; cur != nil; cur = cur.next {
		out = append(out, cur)
	}
	for cur := due; cur != nil; cur = cur.next {
		out = append(out, cur)
	}
	return out
}
