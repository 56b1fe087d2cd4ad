package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/snakego/server/internal/core/event"
	coresys "github.com/snakego/server/internal/core/system"
	"github.com/snakego/server/internal/gen"
	"github.com/snakego/server/internal/grid"
	"github.com/snakego/server/internal/manager"
	"github.com/snakego/server/internal/obstacle"
)

// GenerationSystem keeps the obstacle population topped up by requesting
// batches from the generation pool and merging completed futures. The
// game loop never blocks on a future: completion is polled each tick.
// Phase 2 (PostUpdate).
type GenerationSystem struct {
	mgr    *manager.Manager
	gener  *gen.Generator
	bus    *event.Bus
	log    *zap.Logger
	tuning *Tuning

	target     int
	maxRetries int
	snakeView  func() grid.Snake // current snake cells, joined into the forbidden set

	pending   <-chan []*obstacle.Obstacle
	requested int
}

func NewGenerationSystem(mgr *manager.Manager, gener *gen.Generator, bus *event.Bus,
	tuning *Tuning, target, maxRetries int, snakeView func() grid.Snake, log *zap.Logger) *GenerationSystem {
	if snakeView == nil {
		snakeView = func() grid.Snake { return grid.Snake{} }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GenerationSystem{
		mgr:        mgr,
		gener:      gener,
		bus:        bus,
		log:        log,
		tuning:     tuning,
		target:     target,
		maxRetries: maxRetries,
		snakeView:  snakeView,
	}
}

func (s *GenerationSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *GenerationSystem) Update(_ time.Duration) {
	s.collect()
	if s.pending == nil {
		s.request()
	}
}

// collect merges a completed batch, if any, without blocking.
func (s *GenerationSystem) collect() {
	if s.pending == nil {
		return
	}
	select {
	case batch, ok := <-s.pending:
		s.pending = nil
		if !ok || len(batch) == 0 {
			return
		}
		merged := s.mgr.Merge(batch)
		event.Emit(s.bus, event.BatchMerged{Requested: s.requested, Merged: merged})
	default:
	}
}

// request submits a new batch when the population is below target.
func (s *GenerationSystem) request() {
	deficit := s.target - s.mgr.Count()
	if deficit <= 0 {
		return
	}

	fixed, moving := splitBatch(deficit, s.tuning.FixedCount, s.tuning.MovingCount)
	snake := s.snakeView()
	forbidden := s.mgr.Positions()
	forbidden = append(forbidden, snake.Head)
	forbidden = append(forbidden, snake.Body...)

	s.requested = fixed + moving
	s.pending = s.gener.GenerateAsync(gen.Config{
		FixedCount:        fixed,
		MovingCount:       moving,
		Forbidden:         forbidden,
		PreferredPatterns: s.tuning.Patterns,
		MinLifetime:       s.tuning.MinLifetime,
		MaxLifetime:       s.tuning.MaxLifetime,
		MaxRetries:        s.maxRetries,
	})
	s.log.Debug("generation batch requested",
		zap.Int("fixed", fixed), zap.Int("moving", moving), zap.Int("deficit", deficit))
}

// splitBatch divides a deficit between fixed and moving obstacles in the
// tuning's proportion, never exceeding the deficit.
func splitBatch(deficit, tuneFixed, tuneMoving int) (fixed, moving int) {
	total := tuneFixed + tuneMoving
	if total <= 0 {
		return deficit, 0
	}
	fixed = deficit * tuneFixed / total
	moving = deficit - fixed
	return fixed, moving
}
