package dlhelper

import (
	"sync"
)

type unsubscribeFunc func()

func (f unsubscribeFunc) Unsubscribe() {
	f()
}

type handlerList[F any] struct {
	mu      sync.Mutex
	entries []*F
}

func (l *handlerList[F]) add(f F) Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := &f
	l.entries = append(l.entries, p)
	return unsubscribeFunc(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, e := range l.entries {
			if e == p {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				return
			}
		}
	})
}

func (l *handlerList[F]) each(fn func(F)) {
	l.mu.Lock()
	entries := append([]*F(nil), l.entries...)
	l.mu.Unlock()
	for _, e := range entries {
		fn(*e)
	}
}

func (l *handlerList[F]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

type fakeItem struct {
	url      string
	filename string
	mimeType string
	total    int64

	mu       sync.Mutex
	received int64
	savePath string
	state    ItemState

	updated handlerList[func()]
	done    handlerList[func(ItemState)]
}

func newFakeItem(filename string, mimeType string, total int64) *fakeItem {
	return &fakeItem{
		url:      "https://example.com/" + filename,
		filename: filename,
		mimeType: mimeType,
		total:    total,
		state:    ItemStateProgressing,
	}
}

func (i *fakeItem) URL() string { return i.url }
func (i *fakeItem) Filename() string { return i.filename }
func (i *fakeItem) MimeType() string { return i.mimeType }
func (i *fakeItem) TotalBytes() int64 { return i.total }

func (i *fakeItem) ReceivedBytes() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.received
}

func (i *fakeItem) SavePath() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.savePath
}

func (i *fakeItem) SetSavePath(path string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.savePath = path
}

func (i *fakeItem) State() ItemState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *fakeItem) OnUpdated(handler func()) Subscription {
	return i.updated.add(handler)
}

func (i *fakeItem) OnDone(handler func(state ItemState)) Subscription {
	return i.done.add(handler)
}

// progress sets the received byte count and delivers an updated event.
func (i *fakeItem) progress(received int64) {
	i.mu.Lock()
	i.received = received
	i.mu.Unlock()
	i.updated.each(func(h func()) { h() })
}

// finish sets the terminal state and delivers a done event.
func (i *fakeItem) finish(state ItemState) {
	i.mu.Lock()
	i.state = state
	if state == ItemStateCompleted {
		i.received = i.total
	}
	i.mu.Unlock()
	i.done.each(func(h func(ItemState)) { h(state) })
}

type fakeSession struct {
	partition    string
	willDownload handlerList[func(*WillDownloadEvent)]
	// downloadURL is called by DownloadURL, if set.
	downloadURL func(url string, source ContentContext)
}

func newFakeSession(partition string) *fakeSession {
	return &fakeSession{partition: partition}
}

func (s *fakeSession) Partition() string {
	return s.partition
}

func (s *fakeSession) OnWillDownload(handler func(e *WillDownloadEvent)) Subscription {
	return s.willDownload.add(handler)
}

func (s *fakeSession) DownloadURL(url string) {
	if s.downloadURL != nil {
		s.downloadURL(url, nil)
	}
}

// start delivers a will-download event for item.
func (s *fakeSession) start(item Item, source ContentContext) {
	e := &WillDownloadEvent{Item: item, Source: source}
	s.willDownload.each(func(h func(*WillDownloadEvent)) { h(e) })
}

type fakeContents struct {
	kind    ContentKind
	host    ContentContext
	window  Window
	session *fakeSession
}

func (c *fakeContents) Kind() ContentKind { return c.kind }

func (c *fakeContents) HostContentContext() ContentContext {
	return c.host
}

func (c *fakeContents) Window() Window {
	return c.window
}

func (c *fakeContents) Session() Session {
	if c.session == nil {
		return nil
	}
	return c.session
}

func (c *fakeContents) DownloadURL(url string) {
	if c.session != nil && c.session.downloadURL != nil {
		c.session.downloadURL(url, c)
	}
}

type fakeWindow struct {
	contents *fakeContents

	mu        sync.Mutex
	destroyed bool
	progress  []float64
}

func newFakeWindow(session *fakeSession) *fakeWindow {
	w := &fakeWindow{}
	w.contents = &fakeContents{kind: ContentKindWindow, window: w, session: session}
	return w
}

// newFakeWebview returns webview contents embedded in the window.
func (w *fakeWindow) newFakeWebview(session *fakeSession) *fakeContents {
	return &fakeContents{kind: ContentKindWebview, host: w.contents, session: session}
}

func (w *fakeWindow) IsDestroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

func (w *fakeWindow) SetProgressBar(fraction float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.progress = append(w.progress, fraction)
}

func (w *fakeWindow) Contents() ContentContext {
	if w.contents == nil {
		return nil
	}
	return w.contents
}

func (w *fakeWindow) destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed = true
}

func (w *fakeWindow) progressValues() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]float64(nil), w.progress...)
}

type fakeDialog struct {
	title   string
	message string
}

type fakePlatform struct {
	badge bool
	dir   string

	mu       sync.Mutex
	badges   []int
	finished []string
	revealed []string
	dialogs  []fakeDialog
}

func (p *fakePlatform) SupportsBadge() bool {
	return p.badge
}

func (p *fakePlatform) SetBadgeCount(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.badges = append(p.badges, count)
}

func (p *fakePlatform) NotifyDownloadFinished(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = append(p.finished, path)
}

func (p *fakePlatform) RevealInFileBrowser(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revealed = append(p.revealed, path)
	return nil
}

func (p *fakePlatform) ShowErrorDialog(title string, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialogs = append(p.dialogs, fakeDialog{title, message})
}

func (p *fakePlatform) DownloadsDir() (string, error) {
	return p.dir, nil
}

func (p *fakePlatform) badgeCounts() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.badges...)
}

type fakeApp struct {
	mu       sync.Mutex
	sessions []Session
	created  handlerList[func(Session)]
	// beforeList and afterList run around the snapshot taken by Sessions, if set.
	beforeList func()
	afterList  func()
}

func (a *fakeApp) Sessions() []Session {
	if a.beforeList != nil {
		a.beforeList()
	}
	a.mu.Lock()
	sessions := append([]Session(nil), a.sessions...)
	a.mu.Unlock()
	if a.afterList != nil {
		a.afterList()
	}
	return sessions
}

func (a *fakeApp) OnSessionCreated(handler func(Session)) Subscription {
	return a.created.add(handler)
}

func (a *fakeApp) addSession(s Session) {
	a.mu.Lock()
	a.sessions = append(a.sessions, s)
	a.mu.Unlock()
	a.created.each(func(h func(Session)) { h(s) })
}

type callbackResult struct {
	item Item
	err  error
}

// callbackRecorder records every call of its Callback.
type callbackRecorder struct {
	mu      sync.Mutex
	results []callbackResult
}

func (r *callbackRecorder) callback(item Item, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, callbackResult{item, err})
}

func (r *callbackRecorder) calls() []callbackResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]callbackResult(nil), r.results...)
}
