package httphost

import (
	"sync"

	"github.com/alanbriolat/dlhelper"
)

// ProgressSink displays a Window's progress bar.
type ProgressSink interface {
	SetProgress(fraction float64)
}

type NilProgressSink struct{}

func (NilProgressSink) SetProgress(_ float64) {}

// Window is a headless top-level window.
type Window struct {
	app      *App
	contents *WebContents
	sink     ProgressSink

	mu        sync.Mutex
	progress  float64
	destroyed bool
}

func (w *Window) IsDestroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

func (w *Window) SetProgressBar(fraction float64) {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.progress = fraction
	w.mu.Unlock()
	w.sink.SetProgress(fraction)
}

// Progress returns the last value passed to SetProgressBar.
func (w *Window) Progress() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

func (w *Window) Contents() dlhelper.ContentContext {
	return w.contents
}

// Destroy closes the window; downloads started from it carry on.
func (w *Window) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed = true
}

// AttachView embeds a webview using the session for partition.
func (w *Window) AttachView(partition string) *View {
	v := &View{partition: partition}
	v.contents = &WebContents{
		kind: dlhelper.ContentKindWebview,
		host: w.contents,
	}
	if partition != "" {
		v.contents.session = w.app.FromPartition(partition)
	}
	return v
}

// View is an embedded webview. It only knows its session by partition name.
type View struct {
	partition string
	contents  *WebContents
}

func (v *View) Partition() string {
	return v.partition
}

func (v *View) Contents() dlhelper.ContentContext {
	return v.contents
}

// WebContents is the content shown by a Window or a View.
type WebContents struct {
	kind    dlhelper.ContentKind
	host    *WebContents
	window  *Window
	session *Session
}

func (c *WebContents) Kind() dlhelper.ContentKind {
	return c.kind
}

func (c *WebContents) HostContentContext() dlhelper.ContentContext {
	if c.host == nil {
		return nil
	}
	return c.host
}

func (c *WebContents) Window() dlhelper.Window {
	if c.window == nil {
		return nil
	}
	return c.window
}

func (c *WebContents) Session() dlhelper.Session {
	if c.session == nil {
		return nil
	}
	return c.session
}

// DownloadURL starts url in this content's session; without a session it does nothing.
func (c *WebContents) DownloadURL(url string) {
	if c.session == nil {
		return
	}
	c.session.Start(url, c)
}
