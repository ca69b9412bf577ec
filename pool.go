// pool.go: Buffer pooling for PRF iterate and digest buffers.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package kdf

import (
	"sync"
)

var (
	// Buffer pools tiered by size to reduce GC pressure in the hot
	// derivation loop. The small tier covers every supported digest
	// length (SHA-512 iterates are 64 bytes).
	digestBufferPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 64)
			return &buf
		},
	}

	mediumBufferPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 512) // Salts, multi-block intermediate material
			return &buf
		},
	}

	largeBufferPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 4*1024) // Long derived keys spanning many blocks
			return &buf
		},
	}
)

func init() {
	// Pre-warm pools so the first derivation does not pay allocation
	// latency. Conservative count to keep package load cheap.
	WarmupPools(4)
}

// getBuffer retrieves a buffer from the appropriate pool based on size
func getBuffer(size int) *[]byte {
	switch {
	case size <= 64:
		buf := digestBufferPool.Get().(*[]byte)
		*buf = (*buf)[:size]
		return buf
	case size <= 512:
		buf := mediumBufferPool.Get().(*[]byte)
		*buf = (*buf)[:size]
		return buf
	case size <= 4*1024:
		buf := largeBufferPool.Get().(*[]byte)
		*buf = (*buf)[:size]
		return buf
	default:
		// Very large requests are allocated directly and never pooled.
		buf := make([]byte, size)
		return &buf
	}
}

// putBuffer zeroizes a buffer and returns it to its pool. Buffers hold
// PRF iterates derived from the password, so clearing before reuse is
// mandatory, not an optimization.
func putBuffer(buf *[]byte) {
	if buf == nil {
		return
	}

	// Clear the full backing array, not just the current length: Sum
	// may have appended past the visible slice.
	full := (*buf)[:cap(*buf)]
	Zeroize(full)

	switch cap(*buf) {
	case 64:
		digestBufferPool.Put(buf)
	case 512:
		mediumBufferPool.Put(buf)
	case 4 * 1024:
		largeBufferPool.Put(buf)
		// Non-standard sizes are left for the GC.
	}
}

// PoolStats provides statistics on the pools for performance monitoring
type PoolStats struct {
	DigestBuffers int
	MediumBuffers int
	LargeBuffers  int
}

// GetPoolStats returns the current statistics of the pools (for debugging/monitoring)
func GetPoolStats() PoolStats {
	// sync.Pool does not expose occupancy; kept as a placeholder for a
	// future custom pool with real counters.
	return PoolStats{
		DigestBuffers: -1,
		MediumBuffers: -1,
		LargeBuffers:  -1,
	}
}

// WarmupPools pre-allocates buffers in the pools to reduce cold latency
func WarmupPools(count int) {
	digestBufs := make([]*[]byte, count)
	mediumBufs := make([]*[]byte, count)
	largeBufs := make([]*[]byte, count)

	for i := 0; i < count; i++ {
		digestBufs[i] = getBuffer(64)
		mediumBufs[i] = getBuffer(512)
		largeBufs[i] = getBuffer(4 * 1024)
	}

	for i := 0; i < count; i++ {
		putBuffer(digestBufs[i])
		putBuffer(mediumBufs[i])
		putBuffer(largeBufs[i])
	}
}
