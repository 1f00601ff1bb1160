package dlhelper

import (
	"context"

	"github.com/alanbriolat/dlhelper/async"
	"github.com/alanbriolat/dlhelper/generic"
)

// Download starts url in the window's content context and waits for that download to finish. It returns the
// completed Item, or an *InterruptedError. A cancelled download never finishes in this sense, so the only way out
// for a cancelled item is ctx.
//
// Download blocks, so it must not be called from the goroutine that delivers host events.
func (r *Registrar) Download(ctx context.Context, win Window, url string, opts Options) (Item, error) {
	if win == nil {
		return nil, ErrNoSession
	}
	contents := win.Contents()
	if contents == nil {
		return nil, ErrNoSession
	}
	session := contents.Session()
	if session == nil {
		return nil, ErrNoSession
	}

	opts.UnregisterWhenDone = true
	opts.Webview = nil
	results := make(chan generic.Result[Item], 1)
	reg, err := r.Register(session, opts, func(item Item, err error) {
		select {
		case results <- generic.NewResult(item, err):
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	defer reg.Close()
	Logger(ctx).Sugar().Debugw("starting download", "url", url, "registration_id", reg.ID)

	contents.DownloadURL(url)
	select {
	case result := <-results:
		return result.Parts()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DownloadAsync runs Download in a new goroutine.
func (r *Registrar) DownloadAsync(ctx context.Context, win Window, url string, opts Options) <-chan generic.Result[Item] {
	return async.RunResult(func() (Item, error) {
		return r.Download(ctx, win, url, opts)
	})
}
