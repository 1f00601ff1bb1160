package httphost

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/alanbriolat/dlhelper"
	"github.com/alanbriolat/dlhelper/util"
)

var (
	ErrNoSavePath = errors.New("no save path")
)

// HTTPStatusError is the reason an item was interrupted by a non-2xx response.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %s", e.Status)
}

// transfer runs on a worker goroutine for the whole life of one item.
func (s *Session) transfer(i *Item) {
	log := s.app.log.With("item_id", i.id, "url", i.url)
	resp, err := s.request(i)
	if err != nil {
		log.Warnf("request failed: %v", err)
		i.filename = filenameFor(i.url, nil)
		s.announce(i)
		s.app.loop.post(func() { i.finish(s.failureState(i)) })
		return
	}
	defer resp.Body.Close()

	i.filename = filenameFor(i.url, resp)
	i.mimeType = util.MimeTypeFromContentType(resp.Header.Get("Content-Type"))
	if resp.ContentLength > 0 {
		i.total = resp.ContentLength
	}
	if !s.announce(i) {
		return
	}
	path, ok := i.start()
	if !ok {
		s.app.loop.post(func() { i.finish(dlhelper.ItemStateCancelled) })
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	} else {
		err = s.save(i, path, resp.Body)
	}
	state := dlhelper.ItemStateCompleted
	if err != nil {
		state = s.failureState(i)
		log.Infow("transfer failed", "state", state, "error", err)
	}
	s.app.loop.post(func() {
		i.emitUpdated()
		i.finish(state)
	})
}

func (s *Session) request(i *Item) (*http.Response, error) {
	req, err := http.NewRequestWithContext(i.ctx, http.MethodGet, i.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.app.config.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	return resp, nil
}

// announce delivers will-download on the event loop, and asks the Prompt for a path if no handler set one. It waits
// for that to happen, returning false if the App is closing.
func (s *Session) announce(i *Item) bool {
	return s.app.loop.call(func() {
		e := &dlhelper.WillDownloadEvent{Item: i, Source: i.source}
		for _, h := range s.willDownload.snapshot() {
			h(e)
		}
		if i.SavePath() != "" || i.State().IsTerminal() {
			return
		}
		if path, ok := s.app.config.Prompt(i); ok && path != "" {
			i.SetSavePath(path)
		}
	})
}

func (s *Session) save(i *Item, path string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open target file: %w", err)
	}
	_, err = io.Copy(io.MultiWriter(f, i), &readerContext{ctx: i.ctx, r: body})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to save stream: %w", err)
	}
	return nil
}

// failureState distinguishes Cancel from every other failure.
func (s *Session) failureState(i *Item) dlhelper.ItemState {
	if i.ctx.Err() != nil && s.app.ctx.Err() == nil {
		return dlhelper.ItemStateCancelled
	}
	return dlhelper.ItemStateInterrupted
}

func filenameFor(rawURL string, resp *http.Response) string {
	if resp != nil {
		if filename, err := util.FilenameFromContentDisposition(resp.Header.Get("Content-Disposition")); err == nil {
			return filename
		}
		if resp.Request != nil {
			if filename, err := util.FilenameFromURL(resp.Request.URL); err == nil {
				return filename
			}
		}
	}
	if filename, err := util.FilenameFromURLString(rawURL); err == nil {
		return filename
	}
	return ""
}
