package termui

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/dlhelper"
)

func TestProgressBar(t *testing.T) {
	assert := assert_.New(t)
	var out bytes.Buffer
	p := NewProgressBar(&out, "downloading")

	assert.False(p.Active())
	p.SetProgress(dlhelper.ProgressBarIndeterminate)
	assert.True(p.Active())
	p.SetProgress(0.25)
	p.SetProgress(1)
	assert.True(p.Active())
	p.SetProgress(dlhelper.ProgressBarNone)
	assert.False(p.Active())
	assert.Contains(out.String(), "downloading")
}

func TestAskPath(t *testing.T) {
	assert := assert_.New(t)
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("\nother.pdf\n-\n/abs/x.pdf\n"))

	path, ok := AskPath(in, &out, "/dl", "report.pdf")
	assert.True(ok)
	assert.Equal(filepath.Join("/dl", "report.pdf"), path)
	assert.Contains(out.String(), "Save as")

	path, ok = AskPath(in, &out, "/dl", "report.pdf")
	assert.True(ok)
	assert.Equal(filepath.Join("/dl", "other.pdf"), path)

	_, ok = AskPath(in, &out, "/dl", "report.pdf")
	assert.False(ok)

	path, ok = AskPath(in, &out, "/dl", "report.pdf")
	assert.True(ok)
	assert.Equal("/abs/x.pdf", path)

	_, ok = AskPath(in, &out, "/dl", "report.pdf")
	assert.False(ok)
}
