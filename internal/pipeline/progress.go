package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Progress receives updates while a stream is consumed. The length of a
// stream is unknown up front, so only the running record count is reported.
type Progress interface {
	// OnStart is called once before the first record is read.
	OnStart()

	// OnRecord is called after every handled record with the count so far.
	OnRecord(n int)

	// OnComplete is called once after the writer or filter was finalised.
	OnComplete(n int)

	// OnError is called when the run aborts at record n.
	OnError(n int, err error)
}

// NoOpProgress implements Progress but does nothing.
type NoOpProgress struct{}

func (NoOpProgress) OnStart()                 {}
func (NoOpProgress) OnRecord(n int)           {}
func (NoOpProgress) OnComplete(n int)         {}
func (NoOpProgress) OnError(n int, err error) {}

// ConsoleProgress keeps a single status line with the record count and rate
// on a terminal.
type ConsoleProgress struct {
	writer         io.Writer
	prefix         string
	lastUpdate     time.Time
	updateInterval time.Duration
	mutex          sync.Mutex
	startTime      time.Time
}

// NewConsoleProgress creates a console reporter writing to writer, or to
// stderr when writer is nil.
func NewConsoleProgress(writer io.Writer, prefix string) *ConsoleProgress {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgress{
		writer:         writer,
		prefix:         prefix,
		updateInterval: 100 * time.Millisecond,
	}
}

func (c *ConsoleProgress) OnStart() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.startTime = time.Now()
	c.lastUpdate = time.Time{}
}

func (c *ConsoleProgress) OnRecord(n int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	if now.Sub(c.lastUpdate) < c.updateInterval {
		return
	}
	c.lastUpdate = now
	c.draw(n, now)
}

func (c *ConsoleProgress) OnComplete(n int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.draw(n, time.Now())
	elapsed := time.Since(c.startTime)
	_, _ = fmt.Fprintf(c.writer, "\n%sCompleted %d records in %v\n", c.prefix, n, elapsed.Round(time.Millisecond))
}

func (c *ConsoleProgress) OnError(n int, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, _ = fmt.Fprintf(c.writer, "\n%sError at record %d: %v\n", c.prefix, n, err)
}

func (c *ConsoleProgress) draw(n int, now time.Time) {
	status := fmt.Sprintf("\r%s%d records", c.prefix, n)
	if elapsed := now.Sub(c.startTime); elapsed > 0 && n > 0 {
		status += fmt.Sprintf(" %.1f/s", float64(n)/elapsed.Seconds())
	}
	_, _ = fmt.Fprint(c.writer, status)
}

// LogProgress logs progress updates using slog.
type LogProgress struct {
	logger    *slog.Logger
	level     slog.Level
	interval  int // Log every N records
	lastLog   int
	startTime time.Time
}

// NewLogProgress creates a log based progress reporter.
func NewLogProgress(logger *slog.Logger, level slog.Level) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgress{
		logger:   logger,
		level:    level,
		interval: 1000,
	}
}

// WithInterval sets how frequently to log progress (every N records).
func (l *LogProgress) WithInterval(interval int) *LogProgress {
	if interval > 0 {
		l.interval = interval
	}
	return l
}

func (l *LogProgress) OnStart() {
	l.startTime = time.Now()
	l.lastLog = 0
	l.logger.Log(context.Background(), l.level, "starting stream")
}

func (l *LogProgress) OnRecord(n int) {
	if n-l.lastLog < l.interval {
		return
	}
	l.lastLog = n
	elapsed := time.Since(l.startTime)
	l.logger.Log(context.Background(), l.level, "progress update",
		"records", n,
		"rate", fmt.Sprintf("%.1f/s", float64(n)/elapsed.Seconds()),
		"elapsed", elapsed.Round(time.Millisecond),
	)
}

func (l *LogProgress) OnComplete(n int) {
	elapsed := time.Since(l.startTime)
	l.logger.Log(context.Background(), l.level, "stream completed", "records", n, "elapsed", elapsed.Round(time.Millisecond))
}

func (l *LogProgress) OnError(n int, err error) {
	l.logger.Error("stream aborted", "records", n, "error", err)
}

// MultiProgress fans updates out to several reporters.
type MultiProgress struct {
	reporters []Progress
}

// NewMultiProgress creates a reporter that forwards to every reporter.
func NewMultiProgress(reporters ...Progress) *MultiProgress {
	return &MultiProgress{reporters: reporters}
}

// Add adds another reporter.
func (m *MultiProgress) Add(p Progress) {
	m.reporters = append(m.reporters, p)
}

func (m *MultiProgress) OnStart() {
	for _, p := range m.reporters {
		p.OnStart()
	}
}

func (m *MultiProgress) OnRecord(n int) {
	for _, p := range m.reporters {
		p.OnRecord(n)
	}
}

func (m *MultiProgress) OnComplete(n int) {
	for _, p := range m.reporters {
		p.OnComplete(n)
	}
}

func (m *MultiProgress) OnError(n int, err error) {
	for _, p := range m.reporters {
		p.OnError(n, err)
	}
}
