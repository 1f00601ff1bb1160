package httphost

import (
	"fmt"

	"github.com/alanbriolat/dlhelper"
)

// Session is a partition of the App; every item belongs to the Session it was started in.
type Session struct {
	app          *App
	partition    string
	willDownload handlers[func(*dlhelper.WillDownloadEvent)]
}

func (s *Session) String() string {
	return fmt.Sprintf("Session{Partition:%q}", s.partition)
}

func (s *Session) Partition() string {
	return s.partition
}

func (s *Session) OnWillDownload(handler func(e *dlhelper.WillDownloadEvent)) dlhelper.Subscription {
	return s.willDownload.add(handler)
}

func (s *Session) DownloadURL(url string) {
	s.Start(url, nil)
}

// Start is like DownloadURL, but attributes the item to source and returns it.
func (s *Session) Start(url string, source dlhelper.ContentContext) *Item {
	i := newItem(s, source, url)
	s.app.log.Debugw("starting item", "item_id", i.id, "url", url, "partition", s.partition)
	s.app.workers.Add(1)
	go func() {
		defer s.app.workers.Done()
		s.transfer(i)
	}()
	return i
}
