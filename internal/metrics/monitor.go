package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Acceptance thresholds for the lifetime/collision hot paths.
const (
	maxAcceptableUpdateTime    = 1 * time.Millisecond
	maxAcceptableCollisionTime = 100 * time.Microsecond
	minAcceptableEfficiency    = 0.8
	highContentionRatio        = 0.1
)

// Monitor aggregates hot-path timings with independent atomic counters.
// Recording never takes a lock; statsMu guards only the operations that
// need a consistent multi-field view (Reset, Snapshot). An increment
// racing a Reset may be lost; acceptable for monitoring purposes.
type Monitor struct {
	lifetimeUpdates   atomic.Uint64
	lifetimeUpdateNs  atomic.Uint64
	collisionChecks   atomic.Uint64
	collisionCheckNs  atomic.Uint64
	syncOverheadCount atomic.Uint64
	syncOverheadNs    atomic.Uint64
	contentionCount   atomic.Uint64

	statsMu   sync.Mutex
	startTime time.Time
	lastReset time.Time
}

func NewMonitor() *Monitor {
	now := time.Now()
	return &Monitor{startTime: now, lastReset: now}
}

// RecordLifetimeUpdate records one decay pass and its duration.
func (m *Monitor) RecordLifetimeUpdate(d time.Duration) {
	m.lifetimeUpdates.Add(1)
	m.lifetimeUpdateNs.Add(uint64(d.Nanoseconds()))
}

// RecordCollisionCheck records one read-only query and its duration.
func (m *Monitor) RecordCollisionCheck(d time.Duration) {
	m.collisionChecks.Add(1)
	m.collisionCheckNs.Add(uint64(d.Nanoseconds()))
}

// RecordSyncOverhead records time spent acquiring or waiting on the
// collection lock.
func (m *Monitor) RecordSyncOverhead(d time.Duration) {
	m.syncOverheadCount.Add(1)
	m.syncOverheadNs.Add(uint64(d.Nanoseconds()))
}

// IncrementContention counts one contended lock acquisition.
func (m *Monitor) IncrementContention() {
	m.contentionCount.Add(1)
}

// TotalLifetimeUpdates returns the number of recorded decay passes.
func (m *Monitor) TotalLifetimeUpdates() uint64 { return m.lifetimeUpdates.Load() }

// TotalCollisionChecks returns the number of recorded queries.
func (m *Monitor) TotalCollisionChecks() uint64 { return m.collisionChecks.Load() }

// ContentionCount returns the number of contended acquisitions.
func (m *Monitor) ContentionCount() uint64 { return m.contentionCount.Load() }

// AverageLifetimeUpdateTime returns totalNs/count, 0 when count is 0.
func (m *Monitor) AverageLifetimeUpdateTime() time.Duration {
	return averageNs(m.lifetimeUpdateNs.Load(), m.lifetimeUpdates.Load())
}

// AverageCollisionCheckTime returns totalNs/count, 0 when count is 0.
func (m *Monitor) AverageCollisionCheckTime() time.Duration {
	return averageNs(m.collisionCheckNs.Load(), m.collisionChecks.Load())
}

// AverageSyncOverhead returns totalNs/count, 0 when count is 0.
func (m *Monitor) AverageSyncOverhead() time.Duration {
	return averageNs(m.syncOverheadNs.Load(), m.syncOverheadCount.Load())
}

func averageNs(totalNs, count uint64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalNs / count)
}

// ContentionRatio returns contention / (checks + updates), 0 when the
// denominator is 0.
func (m *Monitor) ContentionRatio() float64 {
	total := m.collisionChecks.Load() + m.lifetimeUpdates.Load()
	if total == 0 {
		return 0
	}
	return float64(m.contentionCount.Load()) / float64(total)
}

// EfficiencyRatio returns 1 − contention ratio; 1.0 before any operation.
func (m *Monitor) EfficiencyRatio() float64 {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.efficiencyLocked()
}

func (m *Monitor) efficiencyLocked() float64 {
	total := m.collisionChecks.Load() + m.lifetimeUpdates.Load()
	if total == 0 {
		return 1.0
	}
	return 1.0 - float64(m.contentionCount.Load())/float64(total)
}

// UpdatesPerSecond returns the lifetime-update rate since the last reset.
func (m *Monitor) UpdatesPerSecond() float64 {
	m.statsMu.Lock()
	elapsed := time.Since(m.lastReset).Seconds()
	m.statsMu.Unlock()
	if elapsed <= 0 {
		return 0
	}
	return float64(m.lifetimeUpdates.Load()) / elapsed
}

// IsAcceptable reports whether all hot-path thresholds hold: average
// update ≤ 1ms, average collision check ≤ 100µs, efficiency ≥ 0.8.
// Trivially true right after Reset (zero operations = perfect efficiency).
func (m *Monitor) IsAcceptable() bool {
	return m.AverageLifetimeUpdateTime() <= maxAcceptableUpdateTime &&
		m.AverageCollisionCheckTime() <= maxAcceptableCollisionTime &&
		m.EfficiencyRatio() >= minAcceptableEfficiency
}

// Warnings returns one message per breached threshold, plus a high
// contention warning above 10%. Empty when everything is healthy.
func (m *Monitor) Warnings() []string {
	var warnings []string
	if m.AverageLifetimeUpdateTime() > maxAcceptableUpdateTime {
		warnings = append(warnings, "lifetime update time exceeds acceptable threshold")
	}
	if m.AverageCollisionCheckTime() > maxAcceptableCollisionTime {
		warnings = append(warnings, "collision check time exceeds acceptable threshold")
	}
	if m.EfficiencyRatio() < minAcceptableEfficiency {
		warnings = append(warnings, "thread efficiency below acceptable ratio")
	}
	if m.ContentionRatio() > highContentionRatio {
		warnings = append(warnings, "high lock contention detected")
	}
	return warnings
}

// Reset zeroes every counter atomically with respect to the snapshot lock.
func (m *Monitor) Reset() {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	m.lifetimeUpdates.Store(0)
	m.lifetimeUpdateNs.Store(0)
	m.collisionChecks.Store(0)
	m.collisionCheckNs.Store(0)
	m.syncOverheadCount.Store(0)
	m.syncOverheadNs.Store(0)
	m.contentionCount.Store(0)
	m.lastReset = time.Now()
}

// Snapshot is a point-in-time view of all counters plus derived metrics,
// consumed by the telemetry repo and the ops stream.
type Snapshot struct {
	TakenAt           time.Time     `json:"taken_at"`
	LifetimeUpdates   uint64        `json:"lifetime_updates"`
	CollisionChecks   uint64        `json:"collision_checks"`
	SyncOverheadCount uint64        `json:"sync_overhead_count"`
	ContentionCount   uint64        `json:"contention_count"`
	AvgUpdateTime     time.Duration `json:"avg_update_ns"`
	AvgCollisionTime  time.Duration `json:"avg_collision_ns"`
	AvgSyncOverhead   time.Duration `json:"avg_sync_overhead_ns"`
	EfficiencyRatio   float64       `json:"efficiency_ratio"`
	UpdatesPerSecond  float64       `json:"updates_per_second"`
	Acceptable        bool          `json:"acceptable"`
}

// Snapshot captures all counters under the snapshot lock.
func (m *Monitor) Snapshot() Snapshot {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	elapsed := time.Since(m.lastReset).Seconds()
	ups := 0.0
	if elapsed > 0 {
		ups = float64(m.lifetimeUpdates.Load()) / elapsed
	}
	snap := Snapshot{
		TakenAt:           time.Now(),
		LifetimeUpdates:   m.lifetimeUpdates.Load(),
		CollisionChecks:   m.collisionChecks.Load(),
		SyncOverheadCount: m.syncOverheadCount.Load(),
		ContentionCount:   m.contentionCount.Load(),
		AvgUpdateTime:     averageNs(m.lifetimeUpdateNs.Load(), m.lifetimeUpdates.Load()),
		AvgCollisionTime:  averageNs(m.collisionCheckNs.Load(), m.collisionChecks.Load()),
		AvgSyncOverhead:   averageNs(m.syncOverheadNs.Load(), m.syncOverheadCount.Load()),
		EfficiencyRatio:   m.efficiencyLocked(),
		UpdatesPerSecond:  ups,
	}
	snap.Acceptable = snap.AvgUpdateTime <= maxAcceptableUpdateTime &&
		snap.AvgCollisionTime <= maxAcceptableCollisionTime &&
		snap.EfficiencyRatio >= minAcceptableEfficiency
	return snap
}
