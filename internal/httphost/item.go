package httphost

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/alanbriolat/dlhelper"
	"github.com/alanbriolat/dlhelper/generic"
)

type ItemID string

func NewItemID() ItemID {
	return ItemID(generic.Unwrap(uuid.NewRandom()).String())
}

// Item is one HTTP transfer. Its events are delivered on the App's event loop.
type Item struct {
	id        ItemID
	url       string
	filename  string
	mimeType  string
	total     int64
	received  atomic.Int64
	session   *Session
	source    dlhelper.ContentContext
	ctx       context.Context
	ctxCancel context.CancelFunc

	mu       sync.Mutex
	savePath string
	started  bool
	state    dlhelper.ItemState

	ticks   rate.Sometimes
	updated handlers[func()]
	done    handlers[func(dlhelper.ItemState)]
}

func newItem(session *Session, source dlhelper.ContentContext, url string) *Item {
	ctx, cancel := context.WithCancel(session.app.ctx)
	return &Item{
		id:        NewItemID(),
		url:       url,
		session:   session,
		source:    source,
		ctx:       ctx,
		ctxCancel: cancel,
		state:     dlhelper.ItemStateProgressing,
		ticks:     rate.Sometimes{Interval: session.app.config.ProgressUpdateInterval},
	}
}

func (i *Item) ID() ItemID {
	return i.id
}

func (i *Item) String() string {
	return fmt.Sprintf("Item{ID:%q, URL:%q}", i.id, i.url)
}

func (i *Item) URL() string {
	return i.url
}

func (i *Item) Filename() string {
	return i.filename
}

func (i *Item) MimeType() string {
	return i.mimeType
}

func (i *Item) TotalBytes() int64 {
	return i.total
}

func (i *Item) ReceivedBytes() int64 {
	return i.received.Load()
}

func (i *Item) SavePath() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.savePath
}

// SetSavePath only has an effect until the transfer starts writing, i.e. from will-download handlers.
func (i *Item) SetSavePath(path string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started {
		i.session.app.log.Warnf("%v: ignoring SetSavePath after start", i)
		return
	}
	i.savePath = path
}

func (i *Item) State() dlhelper.ItemState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Item) OnUpdated(handler func()) dlhelper.Subscription {
	return i.updated.add(handler)
}

func (i *Item) OnDone(handler func(state dlhelper.ItemState)) dlhelper.Subscription {
	return i.done.add(handler)
}

// Cancel stops the transfer; the item finishes as cancelled unless it already finished.
func (i *Item) Cancel() {
	i.ctxCancel()
}

// Write counts received bytes, so that an Item can be the last writer of an io.MultiWriter.
func (i *Item) Write(p []byte) (int, error) {
	i.received.Add(int64(len(p)))
	i.ticks.Do(i.postUpdated)
	return len(p), nil
}

func (i *Item) start() (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.started = true
	return i.savePath, i.savePath != ""
}

func (i *Item) postUpdated() {
	i.session.app.loop.post(i.emitUpdated)
}

func (i *Item) emitUpdated() {
	if i.State().IsTerminal() {
		return
	}
	for _, h := range i.updated.snapshot() {
		h()
	}
}

// finish must run on the event loop. Only the first terminal state counts.
func (i *Item) finish(state dlhelper.ItemState) {
	i.mu.Lock()
	if i.state.IsTerminal() {
		i.mu.Unlock()
		return
	}
	i.state = state
	i.mu.Unlock()
	i.ctxCancel()
	i.session.app.log.Debugw("item finished", "item_id", i.id, "url", i.url, "state", state)
	for _, h := range i.done.snapshot() {
		h(state)
	}
}
