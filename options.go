package dlhelper

import (
	"github.com/alanbriolat/dlhelper/generic"
)

// Progress is reported to Options.OnProgress for a single item on every updated tick.
type Progress struct {
	// Percent is a fraction in [0,1], or 0 if the item's size is unknown.
	Percent          float64
	TransferredBytes int64
	TotalBytes       int64
}

func itemProgress(item Item) Progress {
	received, total := item.ReceivedBytes(), item.TotalBytes()
	p := Progress{TransferredBytes: received, TotalBytes: total}
	if total > 0 {
		p.Percent = float64(received) / float64(total)
	}
	return p
}

// Callback receives the item once it completes, or an *InterruptedError. It is not called for cancelled items.
type Callback func(item Item, err error)

// WebviewDownload selects direct handling of one already-started item instead of subscribing to a session.
type WebviewDownload struct {
	Event *WillDownloadEvent
	// Host is the content context embedding the webview, used to find the owning window.
	Host ContentContext
}

type Options struct {
	// SaveAs leaves the save path unset so that the host prompts the user.
	SaveAs bool
	// Directory for automatically chosen paths; defaults to PlatformUI.DownloadsDir().
	Directory string
	// Filename overrides the suggested filename verbatim, without any collision check.
	Filename string
	// ErrorTitle and ErrorMessage are used for the interrupted-download dialog; "{filename}" is substituted.
	ErrorTitle   string
	ErrorMessage string

	OnStarted  func(Item)
	OnProgress func(Progress)
	OnCancel   func(Item)

	OpenFolderWhenDone bool
	// ShowBadge defaults to true.
	ShowBadge generic.Option[bool]
	// UnregisterWhenDone detaches from the session after the first tracked item finishes.
	UnregisterWhenDone bool
	Webview            *WebviewDownload
}

type resolvedOptions struct {
	Options
	directory    string
	errorTitle   string
	errorMessage string
	showBadge    bool
}

func (o *resolvedOptions) isWebview() bool {
	return o.Webview != nil
}

func (r *Registrar) resolveOptions(opts Options) resolvedOptions {
	res := resolvedOptions{
		Options:      opts,
		directory:    opts.Directory,
		errorTitle:   opts.ErrorTitle,
		errorMessage: opts.ErrorMessage,
		showBadge:    opts.ShowBadge.UnwrapOr(true),
	}
	if res.directory == "" {
		if dir, err := r.config.Platform.DownloadsDir(); err != nil {
			r.log.Warnf("no downloads directory, using working directory: %v", err)
			res.directory = "."
		} else {
			res.directory = dir
		}
	}
	if res.errorTitle == "" {
		res.errorTitle = DefaultErrorTitle
	}
	if res.errorMessage == "" {
		res.errorMessage = DefaultErrorMessage
	}
	return res
}
