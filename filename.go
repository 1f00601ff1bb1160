package dlhelper

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alanbriolat/dlhelper/generic"
	"github.com/alanbriolat/dlhelper/internal/mimedb"
	"github.com/alanbriolat/dlhelper/internal/sync_"
)

const fallbackFilename = "download"

// PathReservations tracks paths chosen for items that are still in flight, which don't exist on disk yet.
type PathReservations struct {
	paths  *sync_.Mutexed[generic.Set[string]]
	exists func(path string) bool
}

func NewPathReservations() *PathReservations {
	return &PathReservations{
		paths:  sync_.NewMutexed(generic.NewSet[string]()),
		exists: pathExists,
	}
}

// ReserveUnused returns path, or the first "name (N).ext" variant of it, that neither exists on disk nor is
// already reserved, and reserves it until Release.
func (r *PathReservations) ReserveUnused(path string) string {
	var chosen string
	_ = r.paths.Locked(func(paths *generic.Set[string]) error {
		for i := 0; ; i++ {
			candidate := numberedPath(path, i)
			if (*paths).Contains(candidate) || r.exists(candidate) {
				continue
			}
			(*paths).Add(candidate)
			chosen = candidate
			return nil
		}
	})
	return chosen
}

func (r *PathReservations) Release(path string) {
	_ = r.paths.Locked(func(paths *generic.Set[string]) error {
		(*paths).Remove(path)
		return nil
	})
}

func (r *PathReservations) Count() int {
	var n int
	_ = r.paths.Locked(func(paths *generic.Set[string]) error {
		n = (*paths).Count()
		return nil
	})
	return n
}

func numberedPath(path string, n int) string {
	if n == 0 {
		return path
	}
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, n, ext))
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// filenameWithMimeExtension appends an extension derived from mimeType if filename has none and exactly one
// extension is known for mimeType; otherwise filename is returned unchanged.
func filenameWithMimeExtension(filename string, mimeType string, db *mimedb.DB) string {
	if filepath.Ext(filename) != "" || db == nil {
		return filename
	}
	if ext, ok := db.UniqueExtension(mimeType); ok {
		return filename + "." + ext
	}
	return filename
}

// resolveSavePath picks the destination for an item; reserved is true if the path must be released later.
func (r *Registrar) resolveSavePath(item Item, opts *resolvedOptions) (path string, reserved bool) {
	if opts.Filename != "" {
		return filepath.Join(opts.directory, opts.Filename), false
	}
	name := filepath.Base(item.Filename())
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = fallbackFilename
	}
	name = filenameWithMimeExtension(name, item.MimeType(), r.config.MimeTypes)
	return r.config.Reservations.ReserveUnused(filepath.Join(opts.directory, name)), true
}
