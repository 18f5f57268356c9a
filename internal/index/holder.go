package index

import (
	"sync"
	"sync/atomic"
)

// Holder is the process-wide reference to the current index.
// Queries lease the current index with Acquire; a rebuild publishes a whole new index with Swap
// and may close the old one once every lease on it has been released.
type Holder struct {
	current atomic.Pointer[slot]
}

// slot is one published index and its outstanding leases. It also lets the holder store a nil
// index, which atomic.Pointer of an interface cannot.
type slot struct {
	idx     VectorIndex
	refs    atomic.Int64
	retired atomic.Bool
	once    sync.Once
	drained chan struct{}
}

func newSlot(idx VectorIndex) *slot {
	return &slot{idx: idx, drained: make(chan struct{})}
}

// maybeDrain signals drained once the slot is retired and unleased.
func (s *slot) maybeDrain() {
	if s.retired.Load() && s.refs.Load() == 0 {
		s.once.Do(func() { close(s.drained) })
	}
}

func (s *slot) release() {
	s.refs.Add(-1)
	s.maybeDrain()
}

// NewHolder returns a holder publishing idx, which may be nil.
func NewHolder(idx VectorIndex) *Holder {
	h := &Holder{}
	h.current.Store(newSlot(idx))
	return h
}

// Load returns the current index or nil when none has been built. The result is not leased,
// so it may be closed by a concurrent rebuild; queries use Acquire.
func (h *Holder) Load() VectorIndex {
	return h.current.Load().idx
}

// Acquire leases the current index, which may be nil. The index stays open until release is
// called, even if a rebuild replaces it in the meantime. release is idempotent.
func (h *Holder) Acquire() (VectorIndex, func()) {
	for {
		s := h.current.Load()
		s.refs.Add(1)
		if h.current.Load() == s {
			var once sync.Once
			return s.idx, func() { once.Do(s.release) }
		}
		// swapped between the load and the lease
		s.release()
	}
}

// Swap publishes idx and returns the index it replaced together with a channel that is
// closed once no lease on the replaced index remains. Callers close the old index only
// after drained fires. old is nil when nothing was published before.
func (h *Holder) Swap(idx VectorIndex) (old VectorIndex, drained <-chan struct{}) {
	prev := h.current.Swap(newSlot(idx))
	prev.retired.Store(true)
	prev.maybeDrain()
	return prev.idx, prev.drained
}
