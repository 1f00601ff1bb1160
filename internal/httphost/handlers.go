package httphost

import (
	"sync"

	"github.com/alanbriolat/dlhelper"
)

// handlers is an ordered list of event handlers that can be removed by their Subscription.
type handlers[F any] struct {
	mu      sync.Mutex
	next    int
	entries []handlerEntry[F]
}

type handlerEntry[F any] struct {
	id int
	f  F
}

func (h *handlers[F]) add(f F) dlhelper.Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.entries = append(h.entries, handlerEntry[F]{id, f})
	return subscription(func() {
		h.remove(id)
	})
}

func (h *handlers[F]) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, e := range h.entries {
		if e.id == id {
			h.entries = append(h.entries[:i:i], h.entries[i+1:]...)
			return
		}
	}
}

func (h *handlers[F]) snapshot() []F {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := make([]F, len(h.entries))
	for i, e := range h.entries {
		list[i] = e.f
	}
	return list
}

func (h *handlers[F]) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

type subscription func()

func (s subscription) Unsubscribe() {
	s()
}
