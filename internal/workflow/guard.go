package workflow

// InterruptGuard is held exactly while a submission is outstanding. A UI
// binding typically registers a navigation warning on Acquire and removes
// it on Release; the guard is advisory and does not abort the remote call.
type InterruptGuard interface {
	Acquire()
	Release()
}

type nopGuard struct{}

func (nopGuard) Acquire() {}
func (nopGuard) Release() {}
