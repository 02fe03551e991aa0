package scanner

import "github.com/Sunrisies/rustkill/internal/logger"

// ScanStatus is a progress event emitted while a scan runs. Events are
// indicative only: concurrent branches interleave, so percentages are not
// globally monotonic and consumers must not treat them as authoritative.
type ScanStatus interface {
	isScanStatus()
}

// Scanning reports in-flight progress for one directory listing.
type Scanning struct {
	CurrentPath     string
	ProgressPercent int
	TotalItems      int
	ProcessedItems  int
}

func (Scanning) isScanStatus() {}

// Completed is the terminal event, emitted exactly once after every
// traversal branch has joined.
type Completed struct {
	TotalFiles int
	TotalSize  string
}

func (Completed) isScanStatus() {}

// Sink carries progress events and diagnostics out of the walking branches.
// It is shared by value across concurrent branches; each branch only sends.
// Status sends are best-effort: a full or absent receiver drops the event
// rather than blocking the walk.
type Sink struct {
	ch  chan<- ScanStatus
	log *logger.Logger
}

// NewSink builds a Sink. Both the channel and the logger may be nil.
func NewSink(ch chan<- ScanStatus, log *logger.Logger) Sink {
	return Sink{ch: ch, log: log}
}

// Status delivers a progress event without blocking.
func (s Sink) Status(st ScanStatus) {
	if s.ch == nil {
		return
	}
	select {
	case s.ch <- st:
	default:
	}
}

// Warnf reports a per-path diagnostic. Warnings never abort the scan.
func (s Sink) Warnf(format string, args ...interface{}) {
	s.log.Warnf(format, args...)
}

func percent(processed, total int) int {
	if total <= 0 {
		return 0
	}
	return processed * 100 / total
}
