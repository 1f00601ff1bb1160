package termui

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// progressScale is the bar resolution for the fractions a window reports.
const progressScale = 1000

// ProgressBar shows a window's aggregate progress as a terminal progress bar.
type ProgressBar struct {
	out         io.Writer
	description string
	log         *zap.SugaredLogger

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func NewProgressBar(out io.Writer, description string) *ProgressBar {
	return &ProgressBar{
		out:         out,
		description: description,
		log:         zap.S().Named("termui.progress"),
	}
}

// SetProgress takes the same values as dlhelper.Window.SetProgressBar.
func (p *ProgressBar) SetProgress(fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case fraction < 0:
		if p.bar != nil {
			p.check(p.bar.Finish())
			p.bar = nil
		}
	case fraction > 1:
		p.ensureBar().Describe(p.description + " (size unknown)")
	default:
		bar := p.ensureBar()
		bar.Describe(p.description)
		p.check(bar.Set(int(fraction * progressScale)))
	}
}

// Active returns true while a bar is shown.
func (p *ProgressBar) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bar != nil
}

func (p *ProgressBar) ensureBar() *progressbar.ProgressBar {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(progressScale,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(p.description),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	}
	return p.bar
}

func (p *ProgressBar) check(err error) {
	if err != nil {
		p.log.Warnf("failed to draw progress bar: %v", err)
	}
}
