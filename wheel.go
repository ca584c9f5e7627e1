package hashwheel

import (
	"sync/atomic"
	"time"
)

// wheel is the ring of buckets and the position-formula logic shared
// by insertion and recurrence. It does not own admission control or
// lifecycle state — that's the Timer facade's job — only the bucket
// array, the tick counter, and the single driver loop.
//
// A dedicated driver goroutine holds a precise next-deadline sleep
// computed from Clock, select-ing a stop signal, rather than a
// free-running ticker.
type wheel struct {
	buckets      []*bucket
	mask         int
	tickInterval time.Duration
	maxParallel  int

	clock           *Clock
	startTimeNanos  int64 // atomic; set by newWheel, clamped to >= 1 so 0 means "not yet constructed"
	tickCount       int64 // atomic; current tick k, visible to concurrent Submit/recur
}

// newWheel builds the bucket ring and captures the wheel's start
// reference immediately, clamped to at least 1ns so a zero value
// unambiguously means "not yet constructed" rather than "started at
// the reference instant." Capturing it here (rather than deferring to
// the first call to run) lets Submit compute deadlines relative to a
// stable reference even for timeouts submitted before Run is called.
func newWheel(cfg config, clock *Clock) *wheel {
	buckets := make([]*bucket, cfg.bucketCount)
	for i := range buckets {
		buckets[i] = newBucket()
	}
	start := clock.Now()
	if start <= 0 {
		start = 1
	}
	return &wheel{
		buckets:        buckets,
		mask:           cfg.mask,
		tickInterval:   cfg.tickInterval,
		maxParallel:    cfg.maxParallelExpirations,
		clock:          clock,
		startTimeNanos: int64(start),
	}
}

func (w *wheel) startTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&w.startTimeNanos))
}

func (w *wheel) currentTick() int64 {
	return atomic.LoadInt64(&w.tickCount)
}

// position computes (remaining_rounds, bucket_index) for a deadline
// (duration since wheel start, ms-aligned) given the tick k it is
// being placed from. Shared by insertion and recurrence.
func (w *wheel) position(deadline time.Duration, k int64) (remainingRounds int32, bucketIndex int) {
	n := int64(len(w.buckets))
	calc := int64(deadline / w.tickInterval)

	remaining := (calc - k) / n
	if remaining < 0 {
		remaining = 0
	}

	idx := calc
	if k > idx {
		idx = k
	}

	return int32(remaining), int(idx) & w.mask
}

// insert places a freshly submitted handle into its computed bucket,
// using the wheel's current tick as the reference point.
func (w *wheel) insert(h *Handle) {
	remaining, idx := w.position(h.deadline(), w.currentTick())
	atomic.StoreInt32(&h.remainingRounds, remaining)
	w.buckets[idx].add(h)
}

// recur re-deadlines and re-inserts a handle that just executed and
// still owes further recurrences.
func (w *wheel) recur(h *Handle, k int64) {
	h.addInterval()
	remaining, idx := w.position(h.deadline(), k)
	atomic.StoreInt32(&h.remainingRounds, remaining)
	atomic.AddInt32(&h.recurringRounds, -1)
	w.buckets[idx].add(h)
}

// run starts the wheel's own advancement loop. It blocks until token
// is canceled. Tick k+1 never begins before tick k's expire+age pair
// has returned: the loop is single-threaded and sequential across
// ticks even though user tasks within one tick run in parallel.
func (w *wheel) run(token CancelToken, onError func(error)) {
	var k int64
	for {
		select {
		case <-token.Done():
			return
		default:
		}

		deadlineK := time.Duration(k+1) * w.tickInterval
		if !w.sleepUntil(deadlineK, token) {
			return
		}

		atomic.StoreInt64(&w.tickCount, k)
		elapsed := w.clock.Now() - w.startTime()

		b := w.buckets[int(k)&w.mask]

		recurred := b.expireDue(elapsed, w.maxParallel, token, onError)
		for _, h := range recurred {
			w.recur(h, k)
		}

		b.age(token)

		k++
	}
}

// sleepUntil blocks until the wheel's elapsed time reaches deadlineK,
// sleeping in cooperative, millisecond-rounded increments so the
// cancel token is checked promptly. Returns false if token fired
// first.
func (w *wheel) sleepUntil(deadlineK time.Duration, token CancelToken) bool {
	for {
		remaining := deadlineK - (w.clock.Now() - w.startTime())
		if remaining <= 0 {
			return true
		}

		timer := time.NewTimer(CeilMillis(remaining))
		select {
		case <-timer.C:
		case <-token.Done():
			timer.Stop()
			return false
		}
	}
}

// unprocessed returns every handle still queued anywhere in the
// wheel: all buckets' pending entries in bucket order 0..N-1, then
// all buckets' due entries in bucket order 0..N-1.
func (w *wheel) unprocessed() []*Handle {
	var pendingAll, dueAll []*Handle
	for _, b := range w.buckets {
		b.acquire()
		pending := b.pending.clear()
		due := b.due.clear()
		b.release()

		for cur := pending; cur != nil; cur = cur.next {
			pendingAll = append(pendingAll, cur)
		}
		for cur := due; cur != nil; cur = cur.next {
			dueAll = append(dueAll, cur)
		}
	}
	return append(pendingAll, dueAll...)
}
