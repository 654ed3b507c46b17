// Package progress renders corpus generation progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/hailam/chaoslog/internal/ports"
)

// New returns the reporter named kind ("bar", "spinner" or "none") writing to w.
func New(kind string, w io.Writer) (ports.Reporter, error) {
	switch kind {
	case "bar", "":
		return NewBar(w), nil
	case "spinner":
		return NewSpinner(w), nil
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown progress style: %s", kind)
	}
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start(int) {}
func (Nop) UnitStarted(int, int, string, string) {}
func (Nop) UnitDone(ports.UnitReport) {}
func (Nop) Finish(ports.Summary) {}

// Bar shows a unit-count progress bar.
type Bar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

func (b *Bar) Start(total int) {
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription("generating"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(b.w) }),
	)
}

func (b *Bar) UnitStarted(index, total int, name, marker string) {
	if b.bar == nil {
		return
	}
	b.bar.Describe(describe(name, marker))
}

func (b *Bar) UnitDone(report ports.UnitReport) {
	if b.bar == nil {
		return
	}
	_ = b.bar.Add(1)
}

func (b *Bar) Finish(summary ports.Summary) {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
	fmt.Fprintln(b.w, summaryLine(summary))
}

// Spinner shows a spinner with the unit currently being written.
type Spinner struct {
	w io.Writer
	s *spinner.Spinner
}

func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w}
}

func (sp *Spinner) Start(total int) {
	sp.s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(sp.w))
	sp.s.Suffix = fmt.Sprintf(" 0/%d", total)
	sp.s.Start()
}

func (sp *Spinner) UnitStarted(index, total int, name, marker string) {
	if sp.s == nil {
		return
	}
	sp.s.Lock()
	sp.s.Suffix = fmt.Sprintf(" [%d/%d] %s", index+1, total, describe(name, marker))
	sp.s.Unlock()
}

func (sp *Spinner) UnitDone(report ports.UnitReport) {
	if report.OK() {
		return
	}
	// Stop the spinner so the failure stays on screen.
	active := sp.s != nil && sp.s.Active()
	if active {
		sp.s.Stop()
	}
	fmt.Fprintf(sp.w, "error on %s: %s\n", report.Name, report.Err)
	if active {
		sp.s.Start()
	}
}

func (sp *Spinner) Finish(summary ports.Summary) {
	line := summaryLine(summary)
	// The spinner stays inactive when w is not a terminal.
	if sp.s != nil && sp.s.Active() {
		sp.s.FinalMSG = line + "\n"
		sp.s.Stop()
		return
	}
	fmt.Fprintln(sp.w, line)
}

func describe(name, marker string) string {
	if marker == "" {
		marker = "NO"
	}
	return fmt.Sprintf("%s (target: %s)", name, marker)
}

func summaryLine(s ports.Summary) string {
	var bytes int64
	for _, u := range s.Units {
		bytes += u.Bytes
	}
	line := fmt.Sprintf("done: %d/%d units written, %d failed, %s in %s",
		s.Succeeded, s.Requested, s.Failed, humanize.IBytes(uint64(bytes)),
		s.Finished.Sub(s.Started).Round(time.Millisecond))
	if s.Interrupted {
		line += " (interrupted)"
	}
	return line
}
