package system

import (
	"time"

	"github.com/snakego/server/internal/core/event"
	coresys "github.com/snakego/server/internal/core/system"
	"github.com/snakego/server/internal/metrics"
)

// TelemetrySystem samples the performance monitor on a fixed interval and
// publishes the snapshot for the persistence and ops sinks. Phase 3
// (Persist).
type TelemetrySystem struct {
	mon      *metrics.Monitor
	bus      *event.Bus
	interval time.Duration
	elapsed  time.Duration
}

func NewTelemetrySystem(mon *metrics.Monitor, bus *event.Bus, interval time.Duration) *TelemetrySystem {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &TelemetrySystem{mon: mon, bus: bus, interval: interval}
}

func (s *TelemetrySystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *TelemetrySystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	event.Emit(s.bus, event.PerfSampled{Snapshot: s.mon.Snapshot()})
}
