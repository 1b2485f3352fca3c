package pipeline

import (
	"runtime"
)

// MemStats is the memory footprint at the end of a run. Reports keep every
// value they need, so a long stream shows up as heap growth here.
type MemStats struct {
	AllocBytes   uint64 `json:"alloc_bytes"`
	HeapObjects  uint64 `json:"heap_objects"`
	SysBytes     uint64 `json:"sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
	PauseTotalNs uint64 `json:"pause_total_ns"`
}

// GetMemStats captures current memory statistics.
func GetMemStats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{
		AllocBytes:   m.Alloc,
		HeapObjects:  m.HeapObjects,
		SysBytes:     m.Sys,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
	}
}
