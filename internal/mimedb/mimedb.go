// Package mimedb maps MIME types to the file extensions registered for them.
package mimedb

import (
	_ "embed"
	"fmt"
	"mime"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed types.yaml
var defaultTable []byte

// DB is an immutable MIME type to extensions table.
type DB struct {
	extensions map[string][]string
}

// Load parses a YAML mapping of MIME type to a list of extensions (without the leading dot).
func Load(data []byte) (*DB, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse mime table: %w", err)
	}
	db := &DB{extensions: make(map[string][]string, len(raw))}
	for mimeType, exts := range raw {
		normalized := make([]string, 0, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext != "" {
				normalized = append(normalized, ext)
			}
		}
		db.extensions[normalize(mimeType)] = normalized
	}
	return db, nil
}

var (
	defaultOnce sync.Once
	defaultDB   *DB
)

// Default returns the table embedded in the binary.
func Default() *DB {
	defaultOnce.Do(func() {
		db, err := Load(defaultTable)
		if err != nil {
			panic(err)
		}
		defaultDB = db
	})
	return defaultDB
}

// Extensions returns every extension known for the MIME type, in preference order. Parameters such as
// "; charset=utf-8" are ignored.
func (db *DB) Extensions(mimeType string) []string {
	exts := db.extensions[normalize(mimeType)]
	if len(exts) == 0 {
		return nil
	}
	return append([]string(nil), exts...)
}

// UniqueExtension returns the extension for the MIME type only if exactly one is known.
func (db *DB) UniqueExtension(mimeType string) (string, bool) {
	exts := db.extensions[normalize(mimeType)]
	if len(exts) != 1 {
		return "", false
	}
	return exts[0], true
}

func normalize(mimeType string) string {
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
