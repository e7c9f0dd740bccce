package beam

import (
	"sync"
	"time"
)

// condWaitTimeout waits on cond for up to timeout, returning false if the
// timer fired before any Broadcast/Signal woke the waiter. Go's sync.Cond
// has no native timed wait (unlike apr_thread_cond_timedwait); this
// emulates it with a timer that performs its own Broadcast on expiry, so
// every waiter - not just this one - gets a chance to recheck its
// predicate. The caller must still recheck its own predicate after this
// returns, since a true result only means "some wakeup happened before
// the timer," not "your condition is satisfied."
func condWaitTimeout(cond *sync.Cond, timeout time.Duration) (woke bool) {
	timer := time.AfterFunc(timeout, cond.Broadcast)
	cond.Wait()
	return timer.Stop()
}
