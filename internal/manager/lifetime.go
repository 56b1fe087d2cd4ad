package manager

// lifetime.go: the background lifetime goroutine, a {Stopped, Running}
// state machine that decays obstacle lifetimes every 100ms and launches
// detached sweeps on a slower cadence. Decoupling sweep cadence from decay
// cadence keeps each exclusive-lock hold short; a slow sweep cannot stall
// the decay beat.

import (
	"time"

	"go.uber.org/zap"
)

const (
	lifetimeTick      = 100 * time.Millisecond
	lifetimeTickSecs  = 0.1
	sweepEveryTicks   = 50  // one detached sweep per 5 seconds
	summaryEveryTicks = 100 // one monitor summary per 10 seconds
)

// Start transitions Stopped→Running and spawns the lifetime goroutine.
// Calling Start on a running manager is a no-op.
func (m *Manager) Start() {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	if m.running {
		return
	}
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.running = true
	go m.lifetimeLoop(m.stopCh, m.doneCh)
	m.log.Debug("lifetime goroutine started")
}

// Stop requests shutdown, joins the lifetime goroutine and every detached
// sweep it launched, then transitions Running→Stopped. Idempotent, always
// completes: no goroutine owned by this manager survives Stop.
func (m *Manager) Stop() {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	if !m.running {
		return
	}
	close(m.stopCh) // shutdown flag + broadcast in one
	<-m.doneCh
	m.sweeps.Wait()
	m.running = false
	m.log.Debug("lifetime goroutine stopped")
}

// Running reports whether the lifetime goroutine is live.
func (m *Manager) Running() bool {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	return m.running
}

// lifetimeLoop is the worker body. Each tick: decay under the exclusive
// lock, record the duration, periodically fire a detached sweep and emit a
// monitor summary, then sleep until the next tick or shutdown.
func (m *Manager) lifetimeLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(lifetimeTick)
	defer timer.Stop()

	tick := 0
	for {
		tick++

		start := time.Now()
		m.Decay(lifetimeTickSecs)
		m.mon.RecordLifetimeUpdate(time.Since(start))

		if tick%sweepEveryTicks == 0 {
			m.launchSweep()
		}
		if tick%summaryEveryTicks == 0 {
			m.log.Info("obstacle performance summary",
				zap.Uint64("lifetime_updates", m.mon.TotalLifetimeUpdates()),
				zap.Uint64("collision_checks", m.mon.TotalCollisionChecks()),
				zap.Float64("updates_per_sec", m.mon.UpdatesPerSecond()),
				zap.Float64("efficiency", m.mon.EfficiencyRatio()),
			)
		}

		select {
		case <-stop:
			return
		case <-timer.C:
		}
		timer.Reset(lifetimeTick)
	}
}

// launchSweep fires a detached exclusive-lock sweep. The loop never waits
// for its completion; the WaitGroup keeps it joinable at Stop.
func (m *Manager) launchSweep() {
	m.sweeps.Add(1)
	go func() {
		defer m.sweeps.Done()
		if removed := m.SweepExpired(); removed > 0 {
			m.log.Debug("swept expired obstacles", zap.Int("removed", removed))
		}
	}()
}
