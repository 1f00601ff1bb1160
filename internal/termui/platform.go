// Package termui implements dlhelper.PlatformUI for a terminal: the "badge" is the terminal title, dialogs are
// printed, and files are revealed with the operating system's file manager.
package termui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

type Config struct {
	// Output receives error dialogs and terminal title escapes.
	Output io.Writer
	// Title enables showing the active download count in the terminal title.
	Title bool
	// DownloadsDir overrides ~/Downloads.
	DownloadsDir string
	// Run starts an external command; it must not wait for the command to exit.
	Run func(name string, args ...string) error
}

var DefaultConfig = Config{
	Output: os.Stderr,
	Title:  false,
	Run:    startCommand,
}

type Platform struct {
	config Config
	log    *zap.SugaredLogger

	mu    sync.Mutex
	badge int
}

func New(config Config) *Platform {
	if config.Output == nil {
		config.Output = DefaultConfig.Output
	}
	if config.Run == nil {
		config.Run = DefaultConfig.Run
	}
	return &Platform{
		config: config,
		log:    zap.S().Named("termui"),
	}
}

func (p *Platform) SupportsBadge() bool {
	return p.config.Title
}

func (p *Platform) SetBadgeCount(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if count == p.badge {
		return
	}
	p.badge = count
	title := "dlhelper"
	if count > 0 {
		title = fmt.Sprintf("dlhelper (%d)", count)
	}
	_, _ = fmt.Fprintf(p.config.Output, "\x1b]0;%s\x07", title)
}

// BadgeCount returns the last count passed to SetBadgeCount.
func (p *Platform) BadgeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.badge
}

func (p *Platform) NotifyDownloadFinished(path string) {
	if info, err := os.Stat(path); err == nil {
		p.log.Infof("Finished %s (%s)", path, humanize.Bytes(uint64(info.Size())))
	} else {
		p.log.Infof("Finished %s", path)
	}
}

func (p *Platform) RevealInFileBrowser(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	name, args, err := revealCommand(runtime.GOOS, absPath)
	if err != nil {
		return err
	}
	p.log.Debugf("revealing %s: %s %v", absPath, name, args)
	return p.config.Run(name, args...)
}

func (p *Platform) ShowErrorDialog(title string, message string) {
	p.log.Errorf("%s: %s", title, message)
	_, _ = fmt.Fprintf(p.config.Output, "\n%s\n  %s\n", title, message)
}

func (p *Platform) DownloadsDir() (string, error) {
	if p.config.DownloadsDir != "" {
		return p.config.DownloadsDir, nil
	}
	return HomeDownloadsDir()
}

// HomeDownloadsDir returns ~/Downloads.
func HomeDownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}

// revealCommand returns the command that shows path in the file manager of goos. Where the file manager can't
// select a file, the containing directory is opened instead.
func revealCommand(goos string, path string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{"-R", path}, nil
	case "windows":
		return "explorer", []string{"/select,", path}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{filepath.Dir(path)}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operating system: %s", goos)
	}
}

func startCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
