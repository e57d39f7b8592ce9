package pipeline

import (
	"fmt"
	"time"
)

// ProgressTracker follows a run through its fixed list of stages
type ProgressTracker struct {
	total     int
	startTime time.Time
	done      []string
}

// NewProgressTracker creates a tracker expecting total stages
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: time.Now(),
	}
}

// Progress describes the run after a stage completed
type Progress struct {
	Stage      string
	Done       int
	Total      int
	Percentage float64
	Elapsed    time.Duration
	ETA        time.Duration
}

// Advance records stage as complete and returns the updated progress.
func (p *ProgressTracker) Advance(stage string) Progress {
	return p.advance(stage, time.Since(p.startTime))
}

// advance assumes the remaining stages take as long as the mean completed one.
func (p *ProgressTracker) advance(stage string, elapsed time.Duration) Progress {
	p.done = append(p.done, stage)
	n := len(p.done)

	prog := Progress{
		Stage:   stage,
		Done:    n,
		Total:   p.total,
		Elapsed: elapsed.Round(time.Millisecond),
	}
	if p.total > 0 {
		prog.Percentage = float64(n) / float64(p.total) * 100
	}
	if remaining := p.total - n; remaining > 0 && elapsed > 0 {
		prog.ETA = (elapsed / time.Duration(n) * time.Duration(remaining)).Round(time.Second)
	}
	return prog
}

// Completed returns the stage names recorded so far, in order.
func (p *ProgressTracker) Completed() []string {
	return append([]string(nil), p.done...)
}

// FormatETA renders a remaining duration as "1h 2m 3s"
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "calculating..."
	}
	d = d.Round(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatThroughput renders an element rate with a K or M suffix
func FormatThroughput(perSec float64) string {
	switch {
	case perSec >= 1e6:
		return fmt.Sprintf("%.1fM/s", perSec/1e6)
	case perSec >= 1e3:
		return fmt.Sprintf("%.1fK/s", perSec/1e3)
	}
	return fmt.Sprintf("%.0f/s", perSec)
}

var byteUnits = []string{"KB", "MB", "GB", "TB"}

// FormatBytes renders a size in binary units
func FormatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v, i := float64(n)/1024, 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[i])
}
