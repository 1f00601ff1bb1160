package dlhelper

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alanbriolat/dlhelper/generic"
	"github.com/alanbriolat/dlhelper/internal/pubsub"
)

type RegistrationID string

func NewRegistrationID() RegistrationID {
	return RegistrationID(generic.Unwrap(uuid.NewRandom()).String())
}

// Registrar attaches download tracking to host sessions.
type Registrar struct {
	config Config
	log    *zap.SugaredLogger
}

func NewRegistrar(config Config) *Registrar {
	if config.Platform == nil {
		config.Platform = DefaultConfig.Platform
	}
	if config.MimeTypes == nil {
		config.MimeTypes = DefaultConfig.MimeTypes
	}
	if config.Reservations == nil {
		config.Reservations = DefaultConfig.Reservations
	}
	return &Registrar{
		config: config,
		log:    zap.S().Named("dlhelper"),
	}
}

// Registration is the download tracking attached to one session (or one webview item), with its own counters.
type Registration struct {
	ID RegistrationID

	registrar *Registrar
	session   Session
	opts      resolvedOptions
	callback  Callback
	agg       *aggregator
	events    pubsub.Publisher[Event]
	log       *zap.SugaredLogger

	mu           sync.Mutex
	subscription Subscription
	closed       bool
}

// trackedItem is what a Registration remembers about one item between its ticks.
type trackedItem struct {
	item     Item
	window   Window
	savePath string
	reserved bool

	mu       sync.Mutex
	updated  Subscription
	done     Subscription
	finished bool
}

// setSubscriptions records the item's event subscriptions, dropping them straight away if the item already
// finished while they were being set up.
func (t *trackedItem) setSubscriptions(updated, done Subscription) {
	t.mu.Lock()
	t.updated, t.done = updated, done
	finished := t.finished
	t.mu.Unlock()
	if finished {
		t.unsubscribe()
	}
}

func (t *trackedItem) unsubscribe() {
	t.mu.Lock()
	t.finished = true
	updated, done := t.updated, t.done
	t.updated, t.done = nil, nil
	t.mu.Unlock()
	if updated != nil {
		updated.Unsubscribe()
	}
	if done != nil {
		done.Unsubscribe()
	}
}

// Register subscribes to the session's will-download events; every item started in the session from now on is
// tracked until Close, or until the first item finishes if Options.UnregisterWhenDone is set.
func (r *Registrar) Register(session Session, opts Options, callback Callback) (*Registration, error) {
	if opts.Webview != nil {
		return r.HandleWebview(opts, callback)
	}
	if session == nil {
		return nil, ErrNilSession
	}
	reg := r.newRegistration(session, opts, callback)
	if opts.Filename != "" && !opts.UnregisterWhenDone {
		reg.log.Warnf("Filename %q applies to every item in the session, later items overwrite earlier ones", opts.Filename)
	}
	subscription := session.OnWillDownload(reg.onWillDownload)
	reg.mu.Lock()
	reg.subscription = subscription
	reg.mu.Unlock()
	reg.log.Debug("registered")
	return reg, nil
}

// HandleWebview handles the single item in Options.Webview directly, without subscribing to any session.
func (r *Registrar) HandleWebview(opts Options, callback Callback) (*Registration, error) {
	if opts.Webview == nil || opts.Webview.Event == nil || opts.Webview.Event.Item == nil {
		return nil, ErrNoWebview
	}
	var session Session
	if source := opts.Webview.Event.Source; source != nil {
		session = source.Session()
	}
	reg := r.newRegistration(session, opts, callback)
	reg.handleItem(opts.Webview.Event.Item, opts.Webview.Event.Source, opts.Webview.Host)
	return reg, nil
}

func (r *Registrar) newRegistration(session Session, opts Options, callback Callback) *Registration {
	if callback == nil {
		callback = func(Item, error) {}
	}
	id := NewRegistrationID()
	log := r.log.Named("registration").With("registration_id", id)
	if session != nil {
		log = log.With("partition", session.Partition())
	}
	return &Registration{
		ID:        id,
		registrar: r,
		session:   session,
		opts:      r.resolveOptions(opts),
		callback:  callback,
		agg:       newAggregator(),
		events:    pubsub.NewPublisher[Event](),
		log:       log,
	}
}

func (reg *Registration) String() string {
	return fmt.Sprintf("Registration{ID:%q}", reg.ID)
}

// Subscribe returns a receiver of every Event from this Registration. The receiver must be drained or closed,
// otherwise host event delivery eventually blocks.
func (reg *Registration) Subscribe() (pubsub.ReceiverCloser[Event], error) {
	return reg.events.Subscribe()
}

// SubscribeFiltered is like Subscribe, but only receives events accepted by filter.
func (reg *Registration) SubscribeFiltered(filter func(Event) bool) (pubsub.ReceiverCloser[Event], error) {
	ch := pubsub.NewChannel[Event](pubsub.DefaultSubscriberBufSize)
	if err := reg.events.AddSubscriber(pubsub.NewFilteredSender[Event](ch, filter), true); err != nil {
		return nil, err
	}
	return ch, nil
}

// Counters returns a snapshot of the aggregate byte counters and the number of active items.
func (reg *Registration) Counters() (ByteCounters, int) {
	return reg.agg.snapshot()
}

func (reg *Registration) ActiveCount() int {
	_, active := reg.agg.snapshot()
	return active
}

// Attached returns true while the Registration is subscribed to its session.
func (reg *Registration) Attached() bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.subscription != nil
}

// Close detaches from the session and closes all event subscribers. Items already started keep reporting to
// their callbacks.
func (reg *Registration) Close() {
	reg.mu.Lock()
	if reg.closed {
		reg.mu.Unlock()
		return
	}
	reg.closed = true
	reg.mu.Unlock()
	reg.detach()
	reg.events.Close()
}

func (reg *Registration) detach() {
	reg.mu.Lock()
	subscription := reg.subscription
	reg.subscription = nil
	reg.mu.Unlock()
	if subscription != nil {
		subscription.Unsubscribe()
		reg.log.Debug("detached from session")
	}
}

func (reg *Registration) onWillDownload(e *WillDownloadEvent) {
	if e == nil || e.Item == nil {
		return
	}
	reg.handleItem(e.Item, e.Source, nil)
}

func (reg *Registration) handleItem(item Item, source ContentContext, host ContentContext) {
	if !reg.agg.start(item) {
		reg.log.Warnf("ignoring duplicate start for %v", item.URL())
		return
	}
	t := &trackedItem{
		item:   item,
		window: resolveWindow(source, host),
	}
	t.savePath, t.reserved = reg.registrar.resolveSavePath(item, &reg.opts)
	if !reg.opts.SaveAs {
		item.SetSavePath(t.savePath)
	}
	reg.log.Debugw("item started", "url", item.URL(), "save_path", t.savePath, "save_as", reg.opts.SaveAs)
	counters, _ := reg.agg.snapshot()
	reg.events.Send(ItemStarted{itemEvent: itemEvent{reg.ID, item}, SavePath: t.savePath, Counters: counters})

	if reg.opts.OnStarted != nil {
		reg.opts.OnStarted(item)
	}

	updated := item.OnUpdated(func() {
		reg.onUpdated(t)
	})
	done := item.OnDone(func(state ItemState) {
		t.unsubscribe()
		reg.onDone(t, state)
	})
	t.setSubscriptions(updated, done)
}

// resolveWindow finds the top-level window for a download's source, going through the embedding context for
// webviews. Returns nil if there isn't one.
func resolveWindow(source ContentContext, host ContentContext) Window {
	contents := source
	if contents != nil && contents.Kind() == ContentKindWebview {
		if host != nil {
			contents = host
		} else {
			contents = contents.HostContentContext()
		}
	} else if contents == nil {
		contents = host
	}
	if contents == nil {
		return nil
	}
	return contents.Window()
}

func windowAlive(w Window) bool {
	return w != nil && !w.IsDestroyed()
}

func (reg *Registration) updateBadge(active int) {
	platform := reg.registrar.config.Platform
	if reg.opts.showBadge && platform.SupportsBadge() {
		platform.SetBadgeCount(active)
	}
}

func (reg *Registration) onUpdated(t *trackedItem) {
	old, counters, active := reg.agg.update()
	reg.updateBadge(active)
	if windowAlive(t.window) {
		t.window.SetProgressBar(counters.Fraction())
	}
	progress := itemProgress(t.item)
	if reg.opts.OnProgress != nil {
		reg.opts.OnProgress(progress)
	}
	reg.events.Send(ItemUpdated{
		itemEvent:   itemEvent{reg.ID, t.item},
		Progress:    progress,
		OldCounters: old,
		NewCounters: counters,
		ActiveCount: active,
	})
}

func (reg *Registration) onDone(t *trackedItem, state ItemState) {
	old, counters, active, ok := reg.agg.finish(t.item)
	if !ok {
		reg.log.Warnf("ignoring done for untracked item %v", t.item.URL())
		return
	}
	if t.reserved {
		reg.registrar.config.Reservations.Release(t.savePath)
	}
	reg.updateBadge(active)
	if active == 0 && windowAlive(t.window) {
		t.window.SetProgressBar(ProgressBarNone)
	}
	if reg.opts.UnregisterWhenDone && !reg.opts.isWebview() {
		reg.detach()
	}

	platform := reg.registrar.config.Platform
	var err error
	switch state {
	case ItemStateCancelled:
		reg.log.Infow("download cancelled", "url", t.item.URL())
		if reg.opts.OnCancel != nil {
			reg.opts.OnCancel(t.item)
		}
	case ItemStateInterrupted:
		interrupted := newInterruptedError(reg.opts.errorMessage, t.item.Filename())
		err = interrupted
		reg.log.Warnw("download interrupted", "url", t.item.URL(), "error", interrupted.Message)
		platform.ShowErrorDialog(reg.opts.errorTitle, interrupted.Message)
		reg.callback(nil, interrupted)
	case ItemStateCompleted:
		path := t.item.SavePath()
		if path == "" {
			path = t.savePath
		}
		reg.log.Infow("download complete", "url", t.item.URL(), "path", path)
		platform.NotifyDownloadFinished(path)
		if reg.opts.OpenFolderWhenDone {
			if revealErr := platform.RevealInFileBrowser(path); revealErr != nil {
				reg.log.Warnf("failed to reveal %v: %v", path, revealErr)
			}
		}
		reg.callback(t.item, nil)
	default:
		reg.log.Errorf("done with non-terminal state %q", state)
	}

	reg.events.Send(ItemDone{
		itemEvent:   itemEvent{reg.ID, t.item},
		State:       state,
		Err:         err,
		OldCounters: old,
		NewCounters: counters,
		ActiveCount: active,
	})
}
