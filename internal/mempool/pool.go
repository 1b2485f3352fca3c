// Package mempool keeps size-classed scratch buffers for the per-mask
// labelling passes, which otherwise allocate width*height slices per layer.
package mempool

import (
	"sync"
)

var (
	boolPools  sync.Map // key: size class (int), value: *sync.Pool
	int32Pools sync.Map // key: size class (int), value: *sync.Pool
)

// sizeClass rounds n up to the next multiple of 1024 (minimum 1024).
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	r := (n + step - 1) / step
	return r * step
}

func poolFor[T any](pools *sync.Map, cls int) *sync.Pool {
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return nil
	}
	return p
}

// get returns a zeroed buffer of length n from the pool set.
func get[T any](pools *sync.Map, n int) []T {
	cls := sizeClass(n)
	p := poolFor[T](pools, cls)
	if p == nil {
		return make([]T, cls)[:n]
	}
	buf, ok := p.Get().([]T)
	if !ok || cap(buf) < cls {
		buf = make([]T, cls)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

func put[T any](pools *sync.Map, buf []T) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	if cls != cap(buf) {
		// not one of ours; let the GC have it
		return
	}
	if p := poolFor[T](pools, cls); p != nil {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}

// GetBool returns a zeroed []bool of length n. Return it with PutBool.
func GetBool(n int) []bool { return get[bool](&boolPools, n) }

// PutBool returns a buffer obtained from GetBool. Nil is ignored.
func PutBool(buf []bool) { put(&boolPools, buf) }

// GetInt32 returns a zeroed []int32 of length n. Return it with PutInt32.
func GetInt32(n int) []int32 { return get[int32](&int32Pools, n) }

// PutInt32 returns a buffer obtained from GetInt32. Nil is ignored.
func PutInt32(buf []int32) { put(&int32Pools, buf) }
