package httphost

import (
	"sync"

	"github.com/gammazero/deque"
)

// eventLoop runs posted functions one at a time, in the order posted, on a single goroutine.
type eventLoop struct {
	mu      sync.Mutex
	queue   deque.Deque[func()]
	wake    chan struct{}
	stopped chan struct{}
	closing bool
}

func newEventLoop() *eventLoop {
	l := &eventLoop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

// post queues f, returning false if the loop is shutting down.
func (l *eventLoop) post(f func()) bool {
	l.mu.Lock()
	if l.closing {
		l.mu.Unlock()
		return false
	}
	l.queue.PushBack(f)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// call posts f and waits for it to have run.
func (l *eventLoop) call(f func()) bool {
	done := make(chan struct{})
	if !l.post(func() {
		defer close(done)
		f()
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-l.stopped:
		return false
	}
}

func (l *eventLoop) run() {
	defer close(l.stopped)
	for {
		l.mu.Lock()
		if l.queue.Len() == 0 {
			closing := l.closing
			l.mu.Unlock()
			if closing {
				return
			}
			<-l.wake
			continue
		}
		f := l.queue.PopFront()
		l.mu.Unlock()
		f()
	}
}

// close stops accepting new functions and waits for the queued ones to run.
func (l *eventLoop) close() {
	l.mu.Lock()
	l.closing = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.stopped
}
