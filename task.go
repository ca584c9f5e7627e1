package hashwheel

import "errors"

// ErrTaskCanceled is the sentinel a Task returns from Run to signal
// that it observed the run CancelToken and aborted cooperatively.
// A Task error satisfying errors.Is(err, ErrTaskCanceled) transitions
// a Handle that still owes recurrences to the Canceled state, and is
// never reported to the unhandled-exception hook. On a handle's final
// execution the state is already Expired before Run is called and
// stays Expired. Any other non-nil error
// is reported as a UserTaskFailure and does not alter handle state.
var ErrTaskCanceled = errors.New("hashwheel: task observed cancellation")

// CancelToken is the cooperative cancellation signal passed to a
// running worker loop and, transitively, to every Task it dispatches.
// It is a narrower surface than context.Context: the wheel has no
// per-task deadlines of its own, only a single run-scoped cancel.
type CancelToken interface {
	// Done returns a channel closed when the token is canceled.
	Done() <-chan struct{}
	// Err returns a non-nil error once Done is closed, nil before.
	Err() error
}

// Task is the single unit of work a Handle carries. The timer never
// inspects a Task's return value beyond distinguishing cooperative
// cancellation (ErrTaskCanceled) from any other failure; adapters that
// convert closures, single-result futures, or recurring generators
// into a Task are out of scope for this package.
type Task interface {
	// Run performs the task's work. h is the Handle that owns this
	// execution; token is the timer's run-scoped cancellation signal.
	// Run must not block longer than tick_interval * max_parallel
	// expirations without honoring token, or it will starve its
	// bucket's parallel slots for that duration.
	Run(h *Handle, token CancelToken) error
}

