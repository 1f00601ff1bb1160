package dlhelper

import (
	"regexp"

	"github.com/alanbriolat/dlhelper/internal/mimedb"
)

const (
	DefaultErrorTitle   = "Download Error"
	DefaultErrorMessage = "The download of {filename} was interrupted"
)

// Config holds the collaborators shared by every Registration a Registrar creates.
type Config struct {
	Platform PlatformUI
	// MimeTypes is used to find an extension for suggested filenames that lack one.
	MimeTypes *mimedb.DB
	// Reservations prevents concurrent resolutions from choosing the same path; share one per process.
	Reservations *PathReservations
}

var DefaultConfig = Config{
	Platform:     NilPlatform{},
	MimeTypes:    mimedb.Default(),
	Reservations: NewPathReservations(),
}

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// formatMessage substitutes {key} placeholders from data, leaving unknown placeholders untouched.
func formatMessage(template string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		if v, ok := data[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}
