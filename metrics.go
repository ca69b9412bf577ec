// metrics.go: Derivation counters for performance monitoring.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package kdf

import (
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
)

// Derivation counters. Updated lock-free on every successful
// derivation; timestamps come from the cached clock since nanosecond
// precision is not needed here.
var (
	totalDerivations  atomic.Uint64
	acceleratedHits   atomic.Uint64
	fallbackHits      atomic.Uint64
	lastDerivedAtNano atomic.Int64
)

// MetricsSnapshot is a point-in-time view of the derivation counters.
type MetricsSnapshot struct {
	Derivations   uint64    `json:"derivations"`    // Total successful derivations
	Accelerated   uint64    `json:"accelerated"`    // Derivations served by a provider
	Fallback      uint64    `json:"fallback"`       // Derivations served by the manual engine
	LastDerivedAt time.Time `json:"last_derived_at"` // Timestamp of the most recent derivation
}

// Metrics returns a snapshot of the derivation counters. Counters are
// read individually without a lock, so a snapshot taken under heavy
// concurrency may be momentarily inconsistent between fields; it is
// intended for monitoring, not accounting.
func Metrics() MetricsSnapshot {
	var last time.Time
	if nano := lastDerivedAtNano.Load(); nano != 0 {
		last = time.Unix(0, nano).UTC()
	}
	return MetricsSnapshot{
		Derivations:   totalDerivations.Load(),
		Accelerated:   acceleratedHits.Load(),
		Fallback:      fallbackHits.Load(),
		LastDerivedAt: last,
	}
}

// ResetMetrics zeroes all derivation counters.
func ResetMetrics() {
	totalDerivations.Store(0)
	acceleratedHits.Store(0)
	fallbackHits.Store(0)
	lastDerivedAtNano.Store(0)
}

// recordDerivation notes a completed derivation and which path served it.
func recordDerivation(accelerated bool) {
	totalDerivations.Add(1)
	if accelerated {
		acceleratedHits.Add(1)
	} else {
		fallbackHits.Add(1)
	}
	lastDerivedAtNano.Store(timecache.CachedTime().UnixNano())
}
