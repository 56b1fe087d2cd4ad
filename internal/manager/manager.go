package manager

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/snakego/server/internal/grid"
	"github.com/snakego/server/internal/metrics"
	"github.com/snakego/server/internal/obstacle"
)

// Manager is the thread-safe facade over an obstacle Store. One
// reader-writer lock covers the whole collection: unbounded concurrent
// readers or exactly one writer, never both. Movement updates mutate
// positions and therefore go through the exclusive lock; they race with
// the lifetime goroutine's decay on the same entities.
//
// The lock is never held across a blocking wait; every public operation
// is a single critical section.
type Manager struct {
	mu    sync.RWMutex
	store *obstacle.Store
	mon   *metrics.Monitor
	log   *zap.Logger

	// Lifetime goroutine state machine {Stopped, Running}; see lifetime.go.
	lifecycleMu sync.Mutex
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	sweeps      sync.WaitGroup
}

// New creates a manager around a fresh store. The lifetime goroutine is
// not started; call Start explicitly.
func New(bounds grid.Bounds, mon *metrics.Monitor, log *zap.Logger, rng *rand.Rand) *Manager {
	if mon == nil {
		mon = metrics.NewMonitor()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		store: obstacle.NewStore(bounds, rng),
		mon:   mon,
		log:   log,
	}
}

// Monitor exposes the performance monitor for reporting.
func (m *Manager) Monitor() *metrics.Monitor { return m.mon }

// Bounds returns the grid dimensions (immutable, lock-free).
func (m *Manager) Bounds() grid.Bounds { return m.store.Bounds() }

// lockShared acquires the read lock, counting contended acquisitions and
// recording the acquisition wait as sync overhead. Go lock acquisition
// cannot fail, so the contention counter stands in for the fatal-path
// accounting the monitor expects.
func (m *Manager) lockShared() {
	if m.mu.TryRLock() {
		return
	}
	m.mon.IncrementContention()
	start := time.Now()
	m.mu.RLock()
	m.mon.RecordSyncOverhead(time.Since(start))
}

// lockExclusive is the writer-side counterpart of lockShared.
func (m *Manager) lockExclusive() {
	if m.mu.TryLock() {
		return
	}
	m.mon.IncrementContention()
	start := time.Now()
	m.mu.Lock()
	m.mon.RecordSyncOverhead(time.Since(start))
}

// ---------- Read-only queries (shared lock) ----------

// CollidesAt reports whether any obstacle occupies the cell. Safe to call
// every simulation tick from any goroutine.
func (m *Manager) CollidesAt(x, y int) bool {
	m.lockShared()
	start := time.Now()
	hit := m.store.CollidesAt(x, y)
	m.mon.RecordCollisionCheck(time.Since(start))
	m.mu.RUnlock()
	return hit
}

// IsFree reports whether the cell holds no obstacle.
func (m *Manager) IsFree(x, y int) bool {
	return !m.CollidesAt(x, y)
}

// IsValidFoodPosition reports whether food may be placed at the cell.
func (m *Manager) IsValidFoodPosition(x, y int) bool {
	return m.IsFree(x, y)
}

// CollidesWithSnake reports whether any obstacle occupies the snake head.
func (m *Manager) CollidesWithSnake(snake grid.Snake) bool {
	m.lockShared()
	start := time.Now()
	hit := m.store.CollidesWithSnake(snake)
	m.mon.RecordCollisionCheck(time.Since(start))
	m.mu.RUnlock()
	return hit
}

// Count returns the total obstacle count. Timed into the monitor like
// every other read query.
func (m *Manager) Count() int {
	m.lockShared()
	start := time.Now()
	n := m.store.Count()
	m.mon.RecordCollisionCheck(time.Since(start))
	m.mu.RUnlock()
	return n
}

// CountByKind returns the count of obstacles of one kind.
func (m *Manager) CountByKind(kind obstacle.Kind) int {
	m.lockShared()
	start := time.Now()
	n := m.store.CountByKind(kind)
	m.mon.RecordCollisionCheck(time.Since(start))
	m.mu.RUnlock()
	return n
}

// Positions snapshots every occupied cell, for the generation pool's
// forbidden set.
func (m *Manager) Positions() []grid.Position {
	m.lockShared()
	start := time.Now()
	out := m.store.Positions()
	m.mon.RecordCollisionCheck(time.Since(start))
	m.mu.RUnlock()
	return out
}

// ---------- Mutations (exclusive lock) ----------

// SpawnFixed places a fixed obstacle; silent no-op when rejected.
func (m *Manager) SpawnFixed(pos grid.Position, lifetime float64) {
	m.lockExclusive()
	m.store.SpawnFixed(pos, lifetime)
	m.mu.Unlock()
}

// SpawnMoving places a moving obstacle; silent no-op when rejected.
func (m *Manager) SpawnMoving(pos grid.Position, pattern obstacle.Pattern, lifetime float64) {
	m.lockExclusive()
	m.store.SpawnMoving(pos, pattern, lifetime)
	m.mu.Unlock()
}

// SpawnRandom performs one opportunistic random spawn.
func (m *Manager) SpawnRandom() {
	m.lockExclusive()
	m.store.SpawnRandom()
	m.mu.Unlock()
}

// UpdateMovement advances every moving obstacle one step. Exclusive lock:
// a position write here races the decay goroutine's pass over the same
// entities, never downgrade this to the shared lock.
func (m *Manager) UpdateMovement() {
	m.lockExclusive()
	m.store.UpdateMovement()
	m.mu.Unlock()
}

// Decay subtracts d seconds of lifetime from every obstacle.
func (m *Manager) Decay(d float64) {
	m.lockExclusive()
	m.store.Decay(d)
	m.mu.Unlock()
}

// SweepExpired removes expired obstacles and returns how many went.
func (m *Manager) SweepExpired() int {
	m.lockExclusive()
	n := m.store.SweepExpired()
	m.mu.Unlock()
	return n
}

// ClearAll removes every obstacle.
func (m *Manager) ClearAll() {
	m.lockExclusive()
	m.store.ClearAll()
	m.mu.Unlock()
}

// SetDifficulty rederives spawn tuning from the level.
func (m *Manager) SetDifficulty(level int) {
	m.lockExclusive()
	m.store.SetDifficulty(level)
	m.mu.Unlock()
}

// SetSpawnRate overrides the spawn rate in obstacles per second.
func (m *Manager) SetSpawnRate(perSecond float64) {
	m.lockExclusive()
	m.store.SetSpawnRate(perSecond)
	m.mu.Unlock()
}

// SetMovingSpeed overrides the moving-obstacle speed.
func (m *Manager) SetMovingSpeed(speed float64) {
	m.lockExclusive()
	m.store.SetMovingSpeed(speed)
	m.mu.Unlock()
}

// ShouldSpawn advances the spawn timer by dt and reports whether a spawn
// is due. The timer is collection state, so this is a write.
func (m *Manager) ShouldSpawn(dt float64) bool {
	m.lockExclusive()
	due := m.store.ShouldSpawn(dt)
	m.mu.Unlock()
	return due
}

// Merge inserts a generated batch under one exclusive lock, re-checking
// occupancy per obstacle at the instant of insertion. Conflicting
// obstacles are skipped silently. Returns the number actually inserted.
func (m *Manager) Merge(batch []*obstacle.Obstacle) int {
	m.lockExclusive()
	merged := 0
	for _, o := range batch {
		if m.store.Insert(o) {
			merged++
		}
	}
	m.mu.Unlock()
	if merged > 0 {
		m.log.Debug("merged generated obstacles",
			zap.Int("requested", len(batch)),
			zap.Int("merged", merged),
		)
	}
	return merged
}
