// Package ipc carries download requests from embedded views, which only know their session's partition name, to
// the side that owns the sessions.
package ipc

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/alanbriolat/dlhelper"
	"github.com/alanbriolat/dlhelper/async"
	"github.com/alanbriolat/dlhelper/internal/lpc"
	"github.com/alanbriolat/dlhelper/internal/pubsub"
)

var (
	ErrClientClosed = errors.New("ipc client closed")
)

type Request struct {
	// Options is sent without its callbacks; the server reports them as Notices instead.
	Options   dlhelper.Options
	URL       string
	Partition string
	// Notices receives the started, progress and cancelled events for the item, if set.
	Notices pubsub.Sender[Notice] `json:"-"`
}

type NoticeKind int

const (
	NoticeStarted NoticeKind = iota
	NoticeProgress
	NoticeCancelled
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeStarted:
		return "started"
	case NoticeProgress:
		return "progress"
	case NoticeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Notice is what the server sends in place of an Options callback.
type Notice struct {
	Kind     NoticeKind
	Item     dlhelper.ItemInfo
	Progress dlhelper.Progress
}

// Reply is the outcome of a Request. Err is empty on success.
type Reply struct {
	Err      string
	Filename string
	Item     dlhelper.ItemInfo
}

type Command = lpc.Command[Request, Reply]

// View is the part of an embedded view the client needs.
type View interface {
	Partition() string
}

// SessionResolver finds an existing session by partition name.
type SessionResolver interface {
	LookupPartition(partition string) (dlhelper.Session, bool)
}

// Connect returns a Client and a Server joined by a pipe. Closing the Client stops the Server.
func Connect(registrar *dlhelper.Registrar, resolver SessionResolver) (*Client, *Server) {
	in, out, pipe := pubsub.NewPipe[*Command]()
	return &Client{requests: in, pipe: pipe, log: zap.S().Named("ipc.client")},
		NewServer(registrar, resolver, out)
}

type Client struct {
	requests pubsub.SenderCloser[*Command]
	pipe     pubsub.Pipe[*Command]
	log      *zap.SugaredLogger
}

// Download asks the server to download url in the view's session, and waits for the outcome like
// dlhelper.Registrar.Download. The OnStarted, OnProgress and OnCancel callbacks run on the calling goroutine. As with
// Registrar.Download, a cancelled item never settles, so only ctx ends the wait for it.
func (c *Client) Download(ctx context.Context, view View, url string, opts dlhelper.Options) (dlhelper.ItemInfo, error) {
	if view == nil || view.Partition() == "" {
		return dlhelper.ItemInfo{}, dlhelper.ErrNoPartition
	}
	callbacks := opts
	opts.OnStarted = nil
	opts.OnProgress = nil
	opts.OnCancel = nil
	opts.Webview = nil
	notices := pubsub.NewChannel[Notice](pubsub.DefaultSubscriberBufSize)
	defer notices.Close()
	cmd := (*Command)(nil).New(Request{Options: opts, URL: url, Partition: view.Partition(), Notices: notices})
	log := c.log.With("url", url, "partition", view.Partition())
	log.Debug("sending request")
	if !c.requests.Send(cmd) {
		return dlhelper.ItemInfo{}, ErrClientClosed
	}
	replies := async.RunResult(cmd.Wait)
	for {
		select {
		case notice := <-notices.Receive():
			dispatchNotice(notice, &callbacks)
		case result := <-replies:
			// Notices for the item are always sent before its reply
			drainNotices(notices, &callbacks)
			reply, err := result.Parts()
			if err != nil {
				return dlhelper.ItemInfo{}, err
			}
			if reply.Err != "" {
				return reply.Item, &dlhelper.InterruptedError{Filename: reply.Filename, Message: reply.Err}
			}
			return reply.Item, nil
		case <-ctx.Done():
			// Lets the server give up on the request too
			_ = cmd.RespondError(ctx.Err())
			log.Debugf("stopped waiting: %v", ctx.Err())
			return dlhelper.ItemInfo{}, ctx.Err()
		}
	}
}

func drainNotices(notices pubsub.Receiver[Notice], callbacks *dlhelper.Options) {
	for {
		select {
		case notice := <-notices.Receive():
			dispatchNotice(notice, callbacks)
		default:
			return
		}
	}
}

func dispatchNotice(notice Notice, callbacks *dlhelper.Options) {
	switch notice.Kind {
	case NoticeStarted:
		if callbacks.OnStarted != nil {
			callbacks.OnStarted(snapshotItem{notice.Item})
		}
	case NoticeProgress:
		if callbacks.OnProgress != nil {
			callbacks.OnProgress(notice.Progress)
		}
	case NoticeCancelled:
		if callbacks.OnCancel != nil {
			callbacks.OnCancel(snapshotItem{notice.Item})
		}
	}
}

func (c *Client) Close() {
	c.pipe.Close()
}
