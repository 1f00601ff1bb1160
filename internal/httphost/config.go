package httphost

import (
	"net/http"
	"time"
)

// Prompt chooses a save path for an item that reached the end of will-download handling without one, like a
// browser's save dialog. Returning false cancels the item.
type Prompt func(item *Item) (path string, ok bool)

// CancelPrompt is the Prompt for hosts with nobody to ask.
func CancelPrompt(_ *Item) (string, bool) {
	return "", false
}

type Config struct {
	Client *http.Client
	// Minimum interval between updated events for one item.
	ProgressUpdateInterval time.Duration
	Prompt                 Prompt
	// DefaultPartition names the session used by windows created without a partition.
	DefaultPartition string
}

var DefaultConfig = Config{
	Client:                 http.DefaultClient,
	ProgressUpdateInterval: 500 * time.Millisecond,
	Prompt:                 CancelPrompt,
	DefaultPartition:       "persist:default",
}
