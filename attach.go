package dlhelper

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/alanbriolat/dlhelper/generic"
	"github.com/alanbriolat/dlhelper/internal/pubsub"
)

// Attachment is the set of registrations Attach made, one per session of an App.
type Attachment struct {
	registrar *Registrar
	opts      Options
	log       *zap.SugaredLogger

	mu            sync.Mutex
	registrations []*Registration
	sessions      generic.Set[Session]
	merger        *pubsub.Merger[Event]
	subscription  Subscription
	closed        bool
	err           error
}

// Attach registers opts on every session the app has now and every session it creates later, until Close.
// Options.Webview and Options.Filename only make sense for a single item, so they are ignored.
func (r *Registrar) Attach(app App, opts Options) *Attachment {
	a := &Attachment{
		registrar: r,
		log:       r.log.Named("attachment"),
		sessions:  generic.NewPolymorphicSet[Session](),
	}
	if opts.Filename != "" {
		a.log.Warnf("ignoring Filename %q for every session", opts.Filename)
	}
	opts.Webview = nil
	opts.Filename = ""
	a.opts = opts
	// Subscribe before listing, so a session created in between is not missed; add skips the duplicates.
	subscription := app.OnSessionCreated(a.add)
	a.mu.Lock()
	a.subscription = subscription
	a.mu.Unlock()
	for _, session := range app.Sessions() {
		a.add(session)
	}
	return a
}

func (a *Attachment) add(session Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || (session != nil && !a.sessions.Add(session)) {
		return
	}
	reg, err := a.registrar.Register(session, a.opts, nil)
	if err != nil {
		a.log.Errorf("failed to register on session: %v", err)
		a.err = multierror.Append(a.err, err)
		return
	}
	a.log.Debugw("registered on session", "partition", session.Partition(), "registration_id", reg.ID)
	a.registrations = append(a.registrations, reg)
	if a.merger != nil {
		a.mergeFrom(reg)
	}
}

func (a *Attachment) mergeFrom(reg *Registration) {
	events, err := reg.Subscribe()
	if err != nil {
		a.log.Warnf("cannot subscribe to %v: %v", reg, err)
		return
	}
	a.merger.Add(events)
}

// Subscribe returns a single stream of the events from every registration, including registrations made later.
// There is only one stream per Attachment; calling Subscribe again returns the same one.
func (a *Attachment) Subscribe() (pubsub.Receiver[Event], error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrAttachmentClosed
	}
	if a.merger == nil {
		a.merger = pubsub.NewMergerBufSize[Event](pubsub.DefaultSubscriberBufSize)
		for _, reg := range a.registrations {
			a.mergeFrom(reg)
		}
	}
	return a.merger, nil
}

func (a *Attachment) Registrations() []*Registration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Registration(nil), a.registrations...)
}

// Err returns every error from registering on sessions so far, or nil.
func (a *Attachment) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Close stops registering on new sessions and closes every registration.
func (a *Attachment) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	registrations := a.registrations
	merger := a.merger
	subscription := a.subscription
	a.subscription = nil
	a.mu.Unlock()

	if subscription != nil {
		subscription.Unsubscribe()
	}
	if merger != nil {
		merger.Close()
	}
	for _, reg := range registrations {
		reg.Close()
	}
}
