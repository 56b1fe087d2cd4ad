package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/snakego/server/internal/core/event"
	coresys "github.com/snakego/server/internal/core/system"
	"github.com/snakego/server/internal/manager"
)

// SpawnSystem drives the difficulty-paced spawn timer: one opportunistic
// random spawn whenever the accumulated interval elapses. Phase 1 (Update).
type SpawnSystem struct {
	mgr *manager.Manager
	bus *event.Bus
	log *zap.Logger
}

func NewSpawnSystem(mgr *manager.Manager, bus *event.Bus, log *zap.Logger) *SpawnSystem {
	return &SpawnSystem{mgr: mgr, bus: bus, log: log}
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SpawnSystem) Update(dt time.Duration) {
	if !s.mgr.ShouldSpawn(dt.Seconds()) {
		return
	}
	before := s.mgr.Count()
	s.mgr.SpawnRandom()
	if after := s.mgr.Count(); after > before {
		event.Emit(s.bus, event.ObstacleSpawned{Total: after})
	}
}
