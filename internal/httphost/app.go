// Package httphost is a headless host for dlhelper: partitioned sessions that download URLs over HTTP, with all
// host events delivered serially on one event loop.
package httphost

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/alanbriolat/dlhelper"
	"github.com/alanbriolat/dlhelper/internal/sync_"
)

var (
	ErrAppClosed = errors.New("app closed")
)

type sessionsByPartition = map[string]*Session

type App struct {
	config    Config
	ctx       context.Context
	ctxCancel context.CancelFunc
	log       *zap.SugaredLogger

	loop           *eventLoop
	workers        sync.WaitGroup
	sessions       *sync_.RWMutexed[sessionsByPartition]
	sessionCreated handlers[func(dlhelper.Session)]
	closeOnce      sync.Once
}

func New(config Config, ctx context.Context) *App {
	if config.Client == nil {
		config.Client = DefaultConfig.Client
	}
	if config.Prompt == nil {
		config.Prompt = DefaultConfig.Prompt
	}
	if config.DefaultPartition == "" {
		config.DefaultPartition = DefaultConfig.DefaultPartition
	}
	ctx, cancel := context.WithCancel(ctx)
	return &App{
		config:    config,
		ctx:       ctx,
		ctxCancel: cancel,
		log:       zap.S().Named("httphost"),
		loop:      newEventLoop(),
		sessions:  sync_.NewRWMutexed(make(sessionsByPartition)),
	}
}

// Sessions returns the existing sessions, ordered by partition.
func (a *App) Sessions() []dlhelper.Session {
	var list []dlhelper.Session
	_ = a.sessions.RLocked(func(sessions *sessionsByPartition) error {
		partitions := make([]string, 0, len(*sessions))
		for p := range *sessions {
			partitions = append(partitions, p)
		}
		sort.Strings(partitions)
		for _, p := range partitions {
			list = append(list, (*sessions)[p])
		}
		return nil
	})
	return list
}

func (a *App) OnSessionCreated(handler func(dlhelper.Session)) dlhelper.Subscription {
	return a.sessionCreated.add(handler)
}

// FromPartition returns the session for partition, creating it if necessary; "" means the default partition.
func (a *App) FromPartition(partition string) *Session {
	if partition == "" {
		partition = a.config.DefaultPartition
	}
	var session *Session
	created := false
	_ = a.sessions.Locked(func(sessions *sessionsByPartition) error {
		if session = (*sessions)[partition]; session == nil {
			session = &Session{app: a, partition: partition}
			(*sessions)[partition] = session
			created = true
		}
		return nil
	})
	if created {
		a.log.Debugw("session created", "partition", partition)
		for _, h := range a.sessionCreated.snapshot() {
			h(session)
		}
	}
	return session
}

// LookupPartition returns the session for partition only if it already exists.
func (a *App) LookupPartition(partition string) (dlhelper.Session, bool) {
	var session *Session
	_ = a.sessions.RLocked(func(sessions *sessionsByPartition) error {
		session = (*sessions)[partition]
		return nil
	})
	if session == nil {
		return nil, false
	}
	return session, true
}

// NewWindow creates a window showing content from the session for partition.
func (a *App) NewWindow(partition string, sink ProgressSink) *Window {
	if sink == nil {
		sink = NilProgressSink{}
	}
	w := &Window{app: a, sink: sink}
	w.contents = &WebContents{
		kind:    dlhelper.ContentKindWindow,
		window:  w,
		session: a.FromPartition(partition),
	}
	return w
}

// Post runs f on the event loop, i.e. serialized with host events.
func (a *App) Post(f func()) error {
	if !a.loop.post(f) {
		return ErrAppClosed
	}
	return nil
}

// Close interrupts every unfinished transfer, waits for their events to be delivered, and stops the event loop.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.ctxCancel()
		a.workers.Wait()
		a.loop.close()
	})
}

// Done is closed once Close has started.
func (a *App) Done() <-chan struct{} {
	return a.ctx.Done()
}
