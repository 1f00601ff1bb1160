package termui

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// AskPath asks for a save path on out, reading one line from in. An empty answer accepts suggested; "-" or end of
// input cancels.
func AskPath(in *bufio.Reader, out io.Writer, dir string, suggested string) (string, bool) {
	defaultPath := filepath.Join(dir, suggested)
	_, _ = fmt.Fprintf(out, "Save as [%s]: ", defaultPath)
	line, err := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return "", false
	}
	switch line {
	case "":
		return defaultPath, true
	case "-":
		return "", false
	}
	if !filepath.IsAbs(line) {
		line = filepath.Join(dir, line)
	}
	return line, true
}
