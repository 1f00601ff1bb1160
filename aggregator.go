package dlhelper

import (
	"sync"

	"github.com/alanbriolat/dlhelper/generic"
)

// ByteCounters are the aggregate byte counts of one Registration. While items are active,
// Received == Completed + the received bytes of every active item, and Total is the sum of the total bytes of
// every item seen since the counters were last reset.
type ByteCounters struct {
	Received  int64
	Completed int64
	Total     int64
}

// Fraction is the aggregate progress to show on a window: Received/Total clamped to [0,1], or
// ProgressBarIndeterminate when Total is unknown.
func (c ByteCounters) Fraction() float64 {
	if c.Total <= 0 {
		return ProgressBarIndeterminate
	}
	f := float64(c.Received) / float64(c.Total)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// aggregator is the mutable state shared by all in-flight items of one Registration.
type aggregator struct {
	mu       sync.Mutex
	counters ByteCounters
	active   generic.Set[Item]
}

func newAggregator() *aggregator {
	return &aggregator{active: generic.NewPolymorphicSet[Item]()}
}

// start adds the item to the active set; returns false if it was already active.
func (a *aggregator) start(item Item) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active.Add(item) {
		return false
	}
	a.counters.Total += item.TotalBytes()
	return true
}

// update recomputes Received from the active items.
func (a *aggregator) update() (old ByteCounters, counters ByteCounters, active int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	old = a.counters
	a.counters.Received = a.counters.Completed + a.activeReceived()
	return old, a.counters, a.active.Count()
}

// finish moves the item's bytes into Completed and evicts it, resetting everything once nothing is active.
// ok is false if the item was not active.
func (a *aggregator) finish(item Item) (old ByteCounters, counters ByteCounters, active int, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	old = a.counters
	if !a.active.Remove(item) {
		return old, a.counters, a.active.Count(), false
	}
	a.counters.Completed += item.TotalBytes()
	a.counters.Received = a.counters.Completed + a.activeReceived()
	if a.active.Count() == 0 {
		a.counters = ByteCounters{}
	}
	return old, a.counters, a.active.Count(), true
}

func (a *aggregator) snapshot() (ByteCounters, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters, a.active.Count()
}

func (a *aggregator) activeReceived() int64 {
	var n int64
	for _, item := range a.active.ToSlice() {
		n += item.ReceivedBytes()
	}
	return n
}
