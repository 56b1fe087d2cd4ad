package system

import (
	"time"

	"github.com/snakego/server/internal/core/event"
	coresys "github.com/snakego/server/internal/core/system"
	"github.com/snakego/server/internal/manager"
)

// SweepSystem removes expired obstacles from the game loop on a fixed
// interval. The manager's background sweep keeps the store bounded on its
// own; this one gives the loop a deterministic cleanup point and publishes
// the removal count. Phase 2 (PostUpdate).
type SweepSystem struct {
	mgr      *manager.Manager
	bus      *event.Bus
	interval time.Duration
	elapsed  time.Duration
}

func NewSweepSystem(mgr *manager.Manager, bus *event.Bus, interval time.Duration) *SweepSystem {
	if interval <= 0 {
		interval = time.Second
	}
	return &SweepSystem{mgr: mgr, bus: bus, interval: interval}
}

func (s *SweepSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SweepSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	if removed := s.mgr.SweepExpired(); removed > 0 {
		event.Emit(s.bus, event.ObstaclesSwept{Removed: removed})
	}
}
