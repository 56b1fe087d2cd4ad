package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/snakego/server/internal/core/system"
	"github.com/snakego/server/internal/data"
	"github.com/snakego/server/internal/gen"
	"github.com/snakego/server/internal/manager"
	"github.com/snakego/server/internal/obstacle"
	"github.com/snakego/server/internal/scripting"
)

// Tuning is the per-level spawn shape shared between the difficulty and
// generation systems. Game-loop goroutine only, no locking.
type Tuning struct {
	Level       int
	FixedCount  int
	MovingCount int
	MinLifetime float64
	MaxLifetime float64
	Patterns    []obstacle.Pattern
}

// DifficultySystem applies difficulty levels to the store and keeps the
// shared Tuning current. Level selection order: Lua spawn_policy if a
// script defines one, then the YAML preset table, then the store's linear
// formula. Phase 0 (Input).
type DifficultySystem struct {
	mgr    *manager.Manager
	levels *data.LevelTable  // may be nil
	engine *scripting.Engine // may be nil
	log    *zap.Logger

	tuning  *Tuning
	applied int // last level pushed to the store; 0 = never

	// Baseline batch lifetimes, taken from the tuning at construction time
	// (the config's generation section). Presets may override per level.
	baseMinLifetime float64
	baseMaxLifetime float64
}

func NewDifficultySystem(mgr *manager.Manager, levels *data.LevelTable, engine *scripting.Engine, tuning *Tuning, log *zap.Logger) *DifficultySystem {
	if log == nil {
		log = zap.NewNop()
	}
	s := &DifficultySystem{
		mgr:    mgr,
		levels: levels,
		engine: engine,
		log:    log,
		tuning: tuning,

		baseMinLifetime: tuning.MinLifetime,
		baseMaxLifetime: tuning.MaxLifetime,
	}
	if s.baseMinLifetime <= 0 {
		s.baseMinLifetime = gen.DefaultMinLifetime
	}
	if s.baseMaxLifetime < s.baseMinLifetime {
		s.baseMaxLifetime = gen.DefaultMaxLifetime
	}
	return s
}

func (s *DifficultySystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *DifficultySystem) Update(_ time.Duration) {
	if s.tuning.Level == s.applied {
		return
	}
	s.Apply(s.tuning.Level)
}

// SetLevel requests a difficulty change; the next tick applies it.
func (s *DifficultySystem) SetLevel(level int) {
	s.tuning.Level = level
}

// Apply pushes one difficulty level into the store and rebuilds the
// shared tuning from policy script, preset table, and formula.
func (s *DifficultySystem) Apply(level int) {
	s.mgr.SetDifficulty(level)

	policy := scripting.DefaultSpawnPolicy(level)
	if s.engine != nil {
		p, ok, err := s.engine.EvalSpawnPolicy(level)
		if err != nil {
			s.log.Warn("spawn policy script failed, using fallback",
				zap.Int("level", level), zap.Error(err))
		} else if ok {
			policy = p
			s.mgr.SetSpawnRate(policy.SpawnRate)
			s.mgr.SetMovingSpeed(policy.MovingSpeed)
		}
	}

	s.tuning.Level = level
	s.tuning.FixedCount = policy.FixedCount
	s.tuning.MovingCount = policy.MovingCount
	s.tuning.MinLifetime = s.baseMinLifetime
	s.tuning.MaxLifetime = s.baseMaxLifetime
	s.tuning.Patterns = nil

	if s.levels != nil {
		if preset, ok := s.levels.Get(level); ok {
			if preset.SpawnRate > 0 {
				s.mgr.SetSpawnRate(preset.SpawnRate)
			}
			if preset.MovingSpeed > 0 {
				s.mgr.SetMovingSpeed(preset.MovingSpeed)
			}
			if preset.MinLifetime > 0 {
				s.tuning.MinLifetime = preset.MinLifetime
			}
			if preset.MaxLifetime > 0 {
				s.tuning.MaxLifetime = preset.MaxLifetime
			}
			s.tuning.Patterns = preset.Patterns()
			if preset.FixedRatio > 0 {
				total := policy.FixedCount + policy.MovingCount
				s.tuning.FixedCount = int(float64(total) * preset.FixedRatio)
				s.tuning.MovingCount = total - s.tuning.FixedCount
			}
		}
	}

	s.applied = level
	s.log.Info("difficulty applied",
		zap.Int("level", level),
		zap.Int("fixed", s.tuning.FixedCount),
		zap.Int("moving", s.tuning.MovingCount),
	)
}
