package dlhelper

import (
	"errors"
	"fmt"
)

var (
	ErrInterrupted        = errors.New("download interrupted")
	ErrNoSession          = errors.New("no session for window")
	ErrNoPartition        = errors.New("cannot resolve session partition")
	ErrRegistrationClosed = errors.New("registration closed")
	ErrNilSession         = errors.New("nil session")
	ErrNoWebview          = errors.New("options.Webview is not set")
	ErrAttachmentClosed   = errors.New("attachment closed")
)

// InterruptedError is passed to the completion callback when the host reports an item as interrupted.
type InterruptedError struct {
	Filename string
	Message  string
}

func (e *InterruptedError) Error() string {
	return e.Message
}

func (e *InterruptedError) Is(target error) bool {
	return target == ErrInterrupted
}

func newInterruptedError(template string, filename string) *InterruptedError {
	return &InterruptedError{
		Filename: filename,
		Message:  formatMessage(template, map[string]string{"filename": filename}),
	}
}

// String is only for logging.
func (e *InterruptedError) String() string {
	return fmt.Sprintf("InterruptedError{Filename:%q}", e.Filename)
}
