package ipc

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/alanbriolat/dlhelper"
	"github.com/alanbriolat/dlhelper/internal/pubsub"
)

// Server answers Requests by registering on the requested session for exactly one download.
type Server struct {
	registrar *dlhelper.Registrar
	resolver  SessionResolver
	requests  pubsub.ReceiverCloser[*Command]
	log       *zap.SugaredLogger
	running   sync.WaitGroup
}

func NewServer(registrar *dlhelper.Registrar, resolver SessionResolver, requests pubsub.ReceiverCloser[*Command]) *Server {
	return &Server{
		registrar: registrar,
		resolver:  resolver,
		requests:  requests,
		log:       zap.S().Named("ipc.server"),
	}
}

// Run handles requests until the request channel closes or ctx is done. Requests still in flight are abandoned
// with ctx's error.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.running.Wait()
	}()
	for {
		select {
		case cmd, ok := <-s.requests.Receive():
			if !ok {
				return nil
			}
			s.handle(ctx, cmd)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Server) handle(ctx context.Context, cmd *Command) {
	req := cmd.Arg()
	log := s.log.With("url", req.URL, "partition", req.Partition)
	session, ok := s.resolver.LookupPartition(req.Partition)
	if !ok {
		log.Warn("no session for partition")
		_ = cmd.RespondError(dlhelper.ErrNoPartition)
		return
	}

	opts := req.Options
	opts.UnregisterWhenDone = true
	opts.Webview = nil
	opts.OnStarted, opts.OnProgress, opts.OnCancel = nil, nil, nil
	if req.Notices != nil {
		notify := func(n Notice) {
			if !req.Notices.Send(n) {
				log.Debugf("%v notice dropped", n.Kind)
			}
		}
		opts.OnStarted = func(item dlhelper.Item) {
			notify(Notice{Kind: NoticeStarted, Item: dlhelper.NewItemInfo(item)})
		}
		opts.OnProgress = func(p dlhelper.Progress) {
			notify(Notice{Kind: NoticeProgress, Progress: p})
		}
		opts.OnCancel = func(item dlhelper.Item) {
			log.Info("download cancelled")
			notify(Notice{Kind: NoticeCancelled, Item: dlhelper.NewItemInfo(item)})
		}
	}
	reg, err := s.registrar.Register(session, opts, func(item dlhelper.Item, err error) {
		if respondErr := cmd.Respond(newReply(item, err)); respondErr != nil {
			log.Debugf("reply dropped: %v", respondErr)
		}
	})
	if err != nil {
		_ = cmd.RespondError(err)
		return
	}
	session.DownloadURL(req.URL)

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		defer reg.Close()
		select {
		case <-waitCommand(cmd):
		case <-ctx.Done():
			_ = cmd.RespondError(ctx.Err())
		}
	}()
}

func waitCommand(cmd *Command) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		_, _ = cmd.Wait()
		close(done)
	}()
	return done
}

func newReply(item dlhelper.Item, err error) Reply {
	if err == nil {
		return Reply{Item: dlhelper.NewItemInfo(item)}
	}
	reply := Reply{Err: err.Error()}
	var interrupted *dlhelper.InterruptedError
	if errors.As(err, &interrupted) {
		reply.Filename = interrupted.Filename
	}
	return reply
}
