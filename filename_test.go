package dlhelper

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanbriolat/dlhelper/generic"
	"github.com/alanbriolat/dlhelper/internal/mimedb"
)

func TestNumberedPath(t *testing.T) {
	assert := assert_.New(t)
	dir := filepath.Join("a", "b")

	assert.Equal(filepath.Join(dir, "report.pdf"), numberedPath(filepath.Join(dir, "report.pdf"), 0))
	assert.Equal(filepath.Join(dir, "report (1).pdf"), numberedPath(filepath.Join(dir, "report.pdf"), 1))
	assert.Equal(filepath.Join(dir, "report (12)"), numberedPath(filepath.Join(dir, "report"), 12))
	assert.Equal(filepath.Join(dir, "archive.tar (2).gz"), numberedPath(filepath.Join(dir, "archive.tar.gz"), 2))
}

func TestFilenameWithMimeExtension(t *testing.T) {
	assert := assert_.New(t)
	db := mimedb.Default()

	assert.Equal("report.pdf", filenameWithMimeExtension("report", "application/pdf", db))
	assert.Equal("report.pdf", filenameWithMimeExtension("report", "application/pdf; name=x", db))
	assert.Equal("report", filenameWithMimeExtension("report", "text/plain", db))
	assert.Equal("report", filenameWithMimeExtension("report", "", db))
	assert.Equal("report", filenameWithMimeExtension("report", "application/x-nothing", db))
	assert.Equal("report.txt", filenameWithMimeExtension("report.txt", "application/pdf", db))
	assert.Equal("report", filenameWithMimeExtension("report", "application/pdf", nil))
}

func TestReserveUnused(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.pdf"), nil, 0644))
	r := NewPathReservations()

	first := r.ReserveUnused(filepath.Join(dir, "report.pdf"))
	second := r.ReserveUnused(filepath.Join(dir, "report.pdf"))
	assert.Equal(filepath.Join(dir, "report (1).pdf"), first)
	assert.Equal(filepath.Join(dir, "report (2).pdf"), second)
	assert.Equal(2, r.Count())

	r.Release(first)
	assert.Equal(first, r.ReserveUnused(filepath.Join(dir, "report.pdf")))
	r.Release(first)
	r.Release(second)
	assert.Equal(0, r.Count())
}

func TestReserveUnusedConcurrent(t *testing.T) {
	assert := assert_.New(t)
	r := NewPathReservations()
	r.exists = func(string) bool { return false }

	const n = 50
	paths := make(chan string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			paths <- r.ReserveUnused(filepath.Join("dl", "report.pdf"))
		}()
	}
	wg.Wait()
	close(paths)

	seen := generic.NewSet[string]()
	for p := range paths {
		assert.True(seen.Add(p), "duplicate path %v", p)
	}
	assert.Equal(n, seen.Count())
	assert.True(seen.Contains(filepath.Join("dl", "report.pdf"), filepath.Join("dl", fmt.Sprintf("report (%d).pdf", n-1))))
}

func TestConcurrentRegistrationsChooseDistinctPaths(t *testing.T) {
	assert := assert_.New(t)
	r, platform := newTestRegistrar(t)

	sessions := []*fakeSession{newFakeSession("a"), newFakeSession("b")}
	for _, s := range sessions {
		reg, err := r.Register(s, Options{}, nil)
		require.NoError(t, err)
		defer reg.Close()
	}
	item1 := newFakeItem("report", "application/pdf", 1)
	item2 := newFakeItem("report", "application/pdf", 1)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sessions[0].start(item1, nil)
	}()
	go func() {
		defer wg.Done()
		sessions[1].start(item2, nil)
	}()
	wg.Wait()

	assert.NotEqual(item1.SavePath(), item2.SavePath())
	assert.ElementsMatch(
		[]string{filepath.Join(platform.dir, "report.pdf"), filepath.Join(platform.dir, "report (1).pdf")},
		[]string{item1.SavePath(), item2.SavePath()},
	)
}
