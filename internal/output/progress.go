package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/tanq16/guardl/internal/utils"
)

const progressRedraw = 100 * time.Millisecond

// ProgressBar draws a single self-overwriting line for one download.
// Update matches downloader.ProgressFunc and never blocks the caller
// beyond one write to the terminal.
type ProgressBar struct {
	mu          sync.Mutex
	w           io.Writer
	label       string
	width       int
	start       time.Time
	lastDraw    time.Time
	transferred int64
	drawn       bool
	now         func() time.Time
}

func NewProgressBar(w io.Writer, label string) *ProgressBar {
	return &ProgressBar{
		w:     w,
		label: label,
		width: 30,
		now:   time.Now,
	}
}

// Update records transferred bytes of total (-1 when unknown). A count
// lower than the previous one means a new attempt started.
func (p *ProgressBar) Update(transferred, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.start.IsZero() || transferred < p.transferred {
		p.start = now
	}
	p.transferred = transferred
	complete := total > 0 && transferred >= total
	if p.drawn && !complete && now.Sub(p.lastDraw) < progressRedraw {
		return
	}
	p.lastDraw = now
	p.drawn = true
	fmt.Fprint(p.w, "\r"+p.render(transferred, total, now))
}

// Finish ends the progress line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}

func (p *ProgressBar) render(transferred, total int64, now time.Time) string {
	elapsed := now.Sub(p.start).Seconds()
	size := utils.FormatBytes(uint64(max(transferred, 0)))
	if total > 0 {
		size += " / " + utils.FormatBytes(uint64(total))
	}
	line := fmt.Sprintf("%s %s %s %s %s",
		p.label,
		ProgressBarString(transferred, total, p.width),
		size,
		StyleSymbols["bullet"],
		utils.FormatSpeed(transferred, elapsed),
	)
	return barStyle.Render(line)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
