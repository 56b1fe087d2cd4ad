package system

import "time"

// Phase defines execution ordering within a single game tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: snake/difficulty input
	PhaseUpdate                  // 1: movement + spawning
	PhasePostUpdate              // 2: generation merge, population control
	PhasePersist                 // 3: telemetry snapshot + persistence
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
