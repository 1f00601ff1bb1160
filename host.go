package dlhelper

// The interfaces in this file are everything dlhelper needs from the host application. A host binding (see
// internal/httphost) implements them; dlhelper never reaches the host any other way.

// Subscription is returned by every host event registration.
type Subscription interface {
	// Unsubscribe detaches the handler; calling it more than once is harmless.
	Unsubscribe()
}

// ItemState is the terminal state an Item reports with its done event.
type ItemState string

const (
	ItemStateProgressing ItemState = "progressing"
	ItemStateCompleted   ItemState = "completed"
	ItemStateCancelled   ItemState = "cancelled"
	ItemStateInterrupted ItemState = "interrupted"
)

// IsTerminal returns true for the states after which an Item emits no further events.
func (s ItemState) IsTerminal() bool {
	switch s {
	case ItemStateCompleted, ItemStateCancelled, ItemStateInterrupted:
		return true
	default:
		return false
	}
}

// Item is a single transfer owned by the host.
type Item interface {
	URL() string
	// Filename is the name suggested by the host, e.g. from Content-Disposition or the URL.
	Filename() string
	MimeType() string
	TotalBytes() int64
	ReceivedBytes() int64
	SavePath() string
	// SetSavePath must be called from within the will-download handler to bypass the host's save prompt.
	SetSavePath(path string)
	State() ItemState
	OnUpdated(handler func()) Subscription
	OnDone(handler func(state ItemState)) Subscription
}

// WillDownloadEvent is delivered by a Session whenever a new Item starts.
type WillDownloadEvent struct {
	Item Item
	// Source is the content context the download originated from; may be nil.
	Source ContentContext
}

// Session is a host download session, the event source a Registration attaches to.
type Session interface {
	// Partition identifies the session, e.g. for embedded views that only know a partition name.
	Partition() string
	OnWillDownload(handler func(e *WillDownloadEvent)) Subscription
	// DownloadURL asks the host to start downloading url in this session.
	DownloadURL(url string)
}

// ContentKind distinguishes top-level window content from embedded views.
type ContentKind int

const (
	ContentKindWindow ContentKind = iota
	ContentKindWebview
)

func (k ContentKind) String() string {
	switch k {
	case ContentKindWindow:
		return "window"
	case ContentKindWebview:
		return "webview"
	default:
		return "unknown"
	}
}

// ContentContext is a host content surface.
type ContentContext interface {
	Kind() ContentKind
	// HostContentContext returns the embedding context of a webview, or nil.
	HostContentContext() ContentContext
	// Window returns the top-level window showing this content, or nil.
	Window() Window
	Session() Session
	DownloadURL(url string)
}

const (
	// ProgressBarNone removes the window progress indicator.
	ProgressBarNone float64 = -1
	// ProgressBarIndeterminate shows an indicator without a known fraction.
	ProgressBarIndeterminate float64 = 2
)

// Window is a host top-level window.
type Window interface {
	IsDestroyed() bool
	// SetProgressBar sets a fraction in [0,1], or ProgressBarNone/ProgressBarIndeterminate.
	SetProgressBar(fraction float64)
	Contents() ContentContext
}

// App is the host application, as far as Attach is concerned.
type App interface {
	// Sessions returns the sessions that already exist.
	Sessions() []Session
	// OnSessionCreated subscribes to sessions created from now on.
	OnSessionCreated(handler func(Session)) Subscription
}

// PlatformUI holds the side effects that belong to the operating system rather than a window.
type PlatformUI interface {
	// SupportsBadge returns true if the platform has a dock/taskbar badge.
	SupportsBadge() bool
	SetBadgeCount(count int)
	// NotifyDownloadFinished tells the dock/launcher integration about a finished file, where there is one.
	NotifyDownloadFinished(path string)
	RevealInFileBrowser(path string) error
	// ShowErrorDialog blocks until the user dismisses it.
	ShowErrorDialog(title string, message string)
	DownloadsDir() (string, error)
}

// NilPlatform is a PlatformUI with no badge and no dialogs.
type NilPlatform struct{}

func (NilPlatform) SupportsBadge() bool { return false }
func (NilPlatform) SetBadgeCount(_ int) {}
func (NilPlatform) NotifyDownloadFinished(_ string) {}
func (NilPlatform) RevealInFileBrowser(_ string) error { return nil }
func (NilPlatform) ShowErrorDialog(_ string, _ string) {}
func (NilPlatform) DownloadsDir() (string, error) { return ".", nil }
