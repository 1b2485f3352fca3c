// Package pipeline drives a stream of annotated images through a writer or
// a filter. Records are handled strictly one at a time and in input order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
)

// Source yields records until it returns io.EOF.
type Source interface {
	Next() (*annotation.Image, error)
}

// Writer is a terminal stream hook that renders a report when finalised.
type Writer interface {
	Initialize() error
	Write(img *annotation.Image) error
	Finalize() error
}

// Filter is a stream hook that passes on zero or more records per input.
type Filter interface {
	Initialize() error
	Process(img *annotation.Image) ([]*annotation.Image, error)
	Finalize() error
}

// Sink receives the records a filter passes on.
type Sink interface {
	Write(img *annotation.Image) error
}

// Summary describes a finished or aborted run.
type Summary struct {
	Read    int
	Emitted int
	Dropped int
	Elapsed time.Duration
	Memory  MemStats
}

// Runner executes runs. The zero value is usable.
type Runner struct {
	Logger   *slog.Logger
	Metrics  *Metrics
	Progress Progress
	Profiler *Profiler
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) progress() Progress {
	if r.Progress == nil {
		return NoOpProgress{}
	}
	return r.Progress
}

func (r *Runner) profiler() *Profiler {
	if r.Profiler == nil {
		r.Profiler = &Profiler{}
	}
	return r.Profiler
}

// Run feeds every record of src to w. Initialize is called once before the
// first record and Finalize once after the last. Any error aborts the run
// and Finalize is then not called, so no partial report is produced.
func (r *Runner) Run(ctx context.Context, src Source, w Writer) (Summary, error) {
	return r.run(ctx, src, w.Initialize, w.Finalize, func(img *annotation.Image, s *Summary) error {
		return w.Write(img)
	})
}

// RunFilter feeds every record of src to f and writes what it passes on to
// sink, in order. A record for which f returns nothing counts as dropped.
func (r *Runner) RunFilter(ctx context.Context, src Source, f Filter, sink Sink) (Summary, error) {
	return r.run(ctx, src, f.Initialize, f.Finalize, func(img *annotation.Image, s *Summary) error {
		out, err := f.Process(img)
		if err != nil {
			return err
		}
		r.Metrics.filtered(len(out))
		if len(out) == 0 {
			s.Dropped++
			return nil
		}
		for _, o := range out {
			if err := sink.Write(o); err != nil {
				return fmt.Errorf("failed to pass on %s: %w", o.Name, err)
			}
			s.Emitted++
		}
		return nil
	})
}

func (r *Runner) run(
	ctx context.Context,
	src Source,
	initialize, finalize func() error,
	handle func(*annotation.Image, *Summary) error,
) (Summary, error) {
	var s Summary
	start := time.Now()
	log := r.logger()
	progress := r.progress()
	profiler := r.profiler()

	fail := func(err error) (Summary, error) {
		s.Elapsed = time.Since(start)
		progress.OnError(s.Read, err)
		return s, err
	}

	if err := initialize(); err != nil {
		return fail(fmt.Errorf("initialization failed: %w", err))
	}
	progress.OnStart()

	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		readStart := time.Now()
		img, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("failed to read record %d: %w", s.Read+1, err))
		}
		readTime := time.Since(readStart)
		s.Read++
		r.Metrics.read(img.Kind.String())

		hookStart := time.Now()
		if err := handle(img, &s); err != nil {
			return fail(fmt.Errorf("failed to process %s: %w", img.Name, err))
		}
		hookTime := time.Since(hookStart)
		r.Metrics.observe(hookTime)
		profiler.Record(readTime, hookTime)
		progress.OnRecord(s.Read)
	}

	if err := finalize(); err != nil {
		return fail(fmt.Errorf("finalization failed: %w", err))
	}

	s.Elapsed = time.Since(start)
	s.Memory = GetMemStats()
	r.Metrics.finished(s.Elapsed)
	progress.OnComplete(s.Read)
	log.Debug("run finished",
		"read", s.Read,
		"emitted", s.Emitted,
		"dropped", s.Dropped,
		"elapsed", s.Elapsed.Round(time.Millisecond),
		"profile", profiler.Snapshot(),
		"alloc_bytes", s.Memory.AllocBytes,
	)
	return s, nil
}
