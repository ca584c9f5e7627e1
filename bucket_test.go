package hashwheel

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBucketAddRoutesByRemainingRounds(t *testing.T) {
	assert := require.New(t)

	b := newBucket()
	due := newTestHandle(&recordingTask{}, 0)
	pending := newTestHandle(&recordingTask{}, 0)
	pending.remainingRounds = 3

	b.add(due)
	b.add(pending)

	unprocessed := b.unprocessed()
	assert.Len(unprocessed, 2)
	assert.Same(pending, unprocessed[0])
	assert.Same(due, unprocessed[1])
}

func TestBucketExpireDueRunsOnlyActuallyDueHandles(t *testing.T) {
	assert := require.New(t)

	b := newBucket()
	task := &recordingTask{}
	ready := newTestHandle(task, 0)
	ready.setDeadline(0)

	notYet := newTestHandle(&recordingTask{}, 0)
	notYet.setDeadline(1000)

	b.add(ready)
	b.add(notYet)

	recurred := b.expireDue(500, 4, neverDone{}, nil)

	assert.Empty(recurred)
	assert.EqualValues(1, task.ran)

	remaining := b.unprocessed()
	assert.Len(remaining, 1)
	assert.Same(notYet, remaining[0])
}

func TestBucketExpireDueSkipsCanceledHandles(t *testing.T) {
	assert := require.New(t)

	b := newBucket()
	task := &recordingTask{}
	h := newTestHandle(task, 0)
	h.setDeadline(0)
	h.Cancel()

	b.add(h)
	b.expireDue(0, 4, neverDone{}, nil)

	assert.EqualValues(0, task.ran)
}

func TestBucketExpireDueCollectsRecurringHandles(t *testing.T) {
	assert := require.New(t)

	b := newBucket()
	task := &recordingTask{}
	h := newTestHandle(task, 2)
	h.setDeadline(0)

	b.add(h)
	recurred := b.expireDue(0, 4, neverDone{}, nil)

	assert.Len(recurred, 1)
	assert.Same(h, recurred[0])
}

func TestBucketAgeDecrementsAndReroutesPending(t *testing.T) {
	assert := require.New(t)

	b := newBucket()
	h := newTestHandle(&recordingTask{}, 0)
	h.remainingRounds = 1

	b.add(h)
	b.age(neverDone{})

	assert.EqualValues(0, atomic.LoadInt32(&h.remainingRounds))

	due := b.unprocessed()
	assert.Len(due, 1)
	assert.Same(h, due[0])
}

func TestBucketAgeSkipsCanceledEntries(t *testing.T) {
	assert := require.New(t)

	b := newBucket()
	h := newTestHandle(&recordingTask{}, 0)
	h.remainingRounds = 2
	b.add(h)
	h.Cancel()

	b.age(neverDone{})

	assert.Empty(b.unprocessed())
}

func TestBucketUnprocessedOrdersPendingBeforeDue(t *testing.T) {
	assert := require.New(t)

	b := newBucket()
	d1 := newTestHandle(&recordingTask{}, 0)
	d2 := newTestHandle(&recordingTask{}, 0)
	p1 := newTestHandle(&recordingTask{}, 0)
	p1.remainingRounds = 1

	b.add(d1)
	b.add(p1)
	b.add(d2)

	out := b.unprocessed()
	assert.Equal([]*Handle{p1, d1, d2}, out)
	assert.Empty(b.unprocessed())
}

func TestBucketExpireDueHonorsMaxParallel(t *testing.T) {
	assert := require.New(t)

	b := newBucket()

	const n = 20
	var concurrent int32
	var peak int32

	task := func() Task {
		return taskFunc(func(h *Handle, token CancelToken) error {
			cur := atomic.AddInt32(&concurrent, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&concurrent, -1)
			return nil
		})
	}

	for i := 0; i < n; i++ {
		h := newTestHandle(task(), 0)
		h.setDeadline(0)
		b.add(h)
	}

	b.expireDue(0, 3, neverDone{}, nil)

	assert.LessOrEqual(int(atomic.LoadInt32(&peak)), 3)
}

type taskFunc func(h *Handle, token CancelToken) error

func (f taskFunc) Run(h *Handle, token CancelToken) error { return f(h, token) }
