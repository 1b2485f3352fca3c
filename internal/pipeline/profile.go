package pipeline

import (
	"sync/atomic"
	"time"
)

// Profiler aggregates time spent in the source and in the stream hook.
type Profiler struct {
	ReadTimeNs atomic.Int64
	HookTimeNs atomic.Int64
	Records    atomic.Int64
}

// Record adds the timings of one record.
func (p *Profiler) Record(read, hook time.Duration) {
	p.ReadTimeNs.Add(int64(read))
	p.HookTimeNs.Add(int64(hook))
	p.Records.Add(1)
}

// Snapshot returns cumulative timings in milliseconds for readability.
func (p *Profiler) Snapshot() map[string]any {
	n := p.Records.Load()
	read := p.ReadTimeNs.Load()
	hook := p.HookTimeNs.Load()
	out := map[string]any{
		"records":       n,
		"read_ms_total": read / 1_000_000,
		"hook_ms_total": hook / 1_000_000,
	}
	if n > 0 {
		out["read_ms_per_record"] = float64(read) / 1_000_000.0 / float64(n)
		out["hook_ms_per_record"] = float64(hook) / 1_000_000.0 / float64(n)
	}
	return out
}
