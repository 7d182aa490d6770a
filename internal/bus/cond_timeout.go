package bus

import (
	"sync"
	"time"
)

// condWaitTimeout waits on cond (whose Lock is already held by the caller)
// until the next Broadcast/Signal or until timeout elapses, whichever
// comes first. It returns false if the timeout fired first.
//
// sync.Cond has no native timeout, so a timer is armed to Broadcast on
// cond's behalf; the waiter distinguishes a timeout wake from a real one
// by checking whether the timer already fired.
func condWaitTimeout(cond *sync.Cond, timeout time.Duration) bool {
	fired := make(chan struct{})
	timer := time.AfterFunc(timeout, func() {
		close(fired)
		cond.Broadcast()
	})
	defer timer.Stop()

	cond.Wait()

	select {
	case <-fired:
		return false
	default:
		return true
	}
}
