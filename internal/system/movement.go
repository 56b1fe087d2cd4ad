package system

import (
	"time"

	coresys "github.com/snakego/server/internal/core/system"
	"github.com/snakego/server/internal/manager"
)

// MovementSystem advances every moving obstacle once per tick under the
// manager's exclusive lock. Phase 1 (Update).
type MovementSystem struct {
	mgr *manager.Manager
}

func NewMovementSystem(mgr *manager.Manager) *MovementSystem {
	return &MovementSystem{mgr: mgr}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(_ time.Duration) {
	s.mgr.UpdateMovement()
}
