package pubsub

import (
	"errors"
	"sync"

	"github.com/alanbriolat/dlhelper/internal/sync_"
)

const (
	DefaultPublisherBufSize  = 16
	DefaultSubscriberBufSize = 16
)

var (
	ErrPublisherClosed = errors.New("publisher closed")
)

// Publisher fans out every message sent to it to all current subscribers, in the order sent.
type Publisher[T any] interface {
	SenderCloser[T]
	// AddSubscriber adds an existing sender as a subscriber; if closeOnClose is true, it will be closed when the
	// Publisher is closed.
	AddSubscriber(s SenderCloser[T], closeOnClose bool) error
	Subscribe() (ReceiverCloser[T], error)
	SubscribeBufSize(int) (ReceiverCloser[T], error)
}

type subscriber[T any] struct {
	SenderCloser[T]
	closeOnClose bool
}

type publisher[T any] struct {
	mu          sync.Mutex
	ch          Channel[T]
	running     sync.WaitGroup // Goroutines in progress
	pending     sync.WaitGroup // Messages not yet sent to all subscribers
	subscribers *sync_.Mutexed[map[SenderCloser[T]]subscriber[T]]
	closed      bool
}

func NewPublisher[T any]() Publisher[T] {
	return NewPublisherBufSize[T](DefaultPublisherBufSize)
}

func NewPublisherBufSize[T any](bufSize int) Publisher[T] {
	p := &publisher[T]{
		ch:          NewChannel[T](bufSize),
		subscribers: sync_.NewMutexed(make(map[SenderCloser[T]]subscriber[T])),
	}
	p.running.Add(1)
	go func() {
		defer p.running.Done()
		for v := range p.ch.Receive() {
			// Snapshot the subscribers, to avoid holding a lock that prevents adding new subscribers
			for _, s := range p.snapshot() {
				if ok := s.Send(v); !ok {
					p.unsubscribe(s)
				}
			}
			p.pending.Done()
		}
	}()
	return p
}

// Send will publish the value to all subscribers (non-blocking unless the publisher buffer is full).
func (p *publisher[T]) Send(msg T) bool {
	p.pending.Add(1)
	if ok := p.ch.Send(msg); !ok {
		// Message was not sent, so don't wait for it
		p.pending.Done()
		return false
	}
	return true
}

func (p *publisher[T]) Subscribe() (ReceiverCloser[T], error) {
	return p.SubscribeBufSize(DefaultSubscriberBufSize)
}

func (p *publisher[T]) SubscribeBufSize(bufSize int) (ReceiverCloser[T], error) {
	s := NewChannel[T](bufSize)
	if err := p.AddSubscriber(s, true); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *publisher[T]) AddSubscriber(s SenderCloser[T], closeOnClose bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	return p.subscribers.Locked(func(subscribers *map[SenderCloser[T]]subscriber[T]) error {
		(*subscribers)[s] = subscriber[T]{SenderCloser: s, closeOnClose: closeOnClose}
		return nil
	})
}

func (p *publisher[T]) snapshot() []SenderCloser[T] {
	var list []SenderCloser[T]
	_ = p.subscribers.Locked(func(subscribers *map[SenderCloser[T]]subscriber[T]) error {
		list = make([]SenderCloser[T], 0, len(*subscribers))
		for s := range *subscribers {
			list = append(list, s)
		}
		return nil
	})
	return list
}

func (p *publisher[T]) unsubscribe(s SenderCloser[T]) {
	_ = p.subscribers.Locked(func(subscribers *map[SenderCloser[T]]subscriber[T]) error {
		delete(*subscribers, s)
		return nil
	})
}

// Close idempotently shuts down the publisher, closing subscribers that asked to be closed with it.
func (p *publisher[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Did we already do this?
	if p.closed {
		return
	}
	// Close the send channel, and wait for the channel to be flushed
	p.ch.Close()
	p.pending.Wait()
	p.running.Wait()
	// Close subscribers, waiting for each one to end
	var toClose []subscriber[T]
	_ = p.subscribers.Locked(func(subscribers *map[SenderCloser[T]]subscriber[T]) error {
		for _, s := range *subscribers {
			toClose = append(toClose, s)
		}
		*subscribers = make(map[SenderCloser[T]]subscriber[T])
		return nil
	})
	for _, s := range toClose {
		if s.closeOnClose {
			s.Close()
		}
	}
	p.closed = true
}

func (p *publisher[T]) Closed() <-chan struct{} {
	return p.ch.Closed()
}
