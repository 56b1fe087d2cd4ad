package gen

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/snakego/server/internal/grid"
	"github.com/snakego/server/internal/obstacle"
)

// Generation defaults; a zero-valued Config field falls back to these.
const (
	DefaultMinLifetime  = 5.0  // seconds
	DefaultMaxLifetime  = 15.0 // seconds
	DefaultMaxRetries   = 10
	DefaultSafetyMargin = 2 // Manhattan cells kept clear around the snake
)

// Config describes one generation batch request.
type Config struct {
	FixedCount        int
	MovingCount       int
	Forbidden         []grid.Position
	PreferredPatterns []obstacle.Pattern // empty = all five
	MinLifetime       float64            // seconds; 0 = DefaultMinLifetime
	MaxLifetime       float64            // seconds; 0 = DefaultMaxLifetime
	MovingSpeed       float64            // 0 = obstacle.DefaultMovingSpeed
	MaxRetries        int                // 0 = DefaultMaxRetries
}

func (c Config) normalized() Config {
	if c.MinLifetime <= 0 {
		c.MinLifetime = DefaultMinLifetime
	}
	if c.MaxLifetime < c.MinLifetime {
		c.MaxLifetime = DefaultMaxLifetime
	}
	if c.MovingSpeed <= 0 {
		c.MovingSpeed = obstacle.DefaultMovingSpeed
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	return c
}

// Generator computes candidate obstacle batches off the hot path on a
// worker pool. Stateless with respect to any Store: it only knows the
// grid bounds and draws its own randomness.
type Generator struct {
	bounds grid.Bounds
	pool   *Pool
	log    *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	totalGenerated atomic.Uint64
	totalGenNs     atomic.Uint64
}

// NewGenerator creates a generator backed by its own worker pool.
func NewGenerator(bounds grid.Bounds, workers int, log *zap.Logger, rng *rand.Rand) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		bounds: bounds,
		pool:   NewPool(workers, log),
		log:    log,
		rng:    rng,
	}
}

// Pool exposes the underlying worker pool.
func (g *Generator) Pool() *Pool { return g.pool }

// Shutdown stops the worker pool; queued batches are dropped.
func (g *Generator) Shutdown() { g.pool.Shutdown() }

// GenerateAsync computes a batch on a pool worker and delivers it through
// the returned future channel. The channel is closed without a value when
// the pool refuses or drops the task, so callers ranging over it see an
// empty result rather than an error; resource exhaustion is not a failure.
// The future always resolves, including when a queued task is dropped
// during shutdown.
func (g *Generator) GenerateAsync(cfg Config) <-chan []*obstacle.Obstacle {
	future := make(chan []*obstacle.Obstacle, 1)
	ok := g.pool.SubmitWithDiscard(func() {
		future <- g.generateTimed(cfg)
		close(future)
	}, func() {
		close(future)
	})
	if !ok {
		close(future)
	}
	return future
}

// GenerateWithCallback computes a batch and invokes fn with the result on
// a pool goroutine. The callback sibling of GenerateAsync: fn receives nil
// when the pool refuses or drops the task.
func (g *Generator) GenerateWithCallback(cfg Config, fn func([]*obstacle.Obstacle)) {
	ok := g.pool.SubmitWithDiscard(func() {
		fn(g.generateTimed(cfg))
	}, func() {
		fn(nil)
	})
	if !ok {
		fn(nil)
	}
}

// generateTimed wraps a batch computation with the generation timer.
func (g *Generator) generateTimed(cfg Config) []*obstacle.Obstacle {
	start := time.Now()
	batch := g.generateBatch(cfg.normalized())
	g.totalGenNs.Add(uint64(time.Since(start).Nanoseconds()))
	return batch
}

// generateBatch draws candidate positions for the requested counts. Per
// obstacle: up to MaxRetries uniform draws, accepting the first in-bounds
// cell not in the forbidden set and not already taken within this batch;
// on exhausting retries the obstacle is skipped, so the batch may
// legitimately come back smaller than requested.
func (g *Generator) generateBatch(cfg Config) []*obstacle.Obstacle {
	taken := make(map[grid.Position]struct{}, len(cfg.Forbidden)+cfg.FixedCount+cfg.MovingCount)
	for _, p := range cfg.Forbidden {
		taken[p] = struct{}{}
	}

	batch := make([]*obstacle.Obstacle, 0, cfg.FixedCount+cfg.MovingCount)

	for i := 0; i < cfg.FixedCount; i++ {
		pos, ok := g.drawFreePosition(taken, cfg.MaxRetries)
		if !ok {
			continue
		}
		taken[pos] = struct{}{}
		batch = append(batch, obstacle.NewFixed(pos, g.randomLifetime(cfg)))
	}
	for i := 0; i < cfg.MovingCount; i++ {
		pos, ok := g.drawFreePosition(taken, cfg.MaxRetries)
		if !ok {
			continue
		}
		taken[pos] = struct{}{}
		batch = append(batch, obstacle.NewMoving(
			pos, g.randomPattern(cfg.PreferredPatterns), g.randomLifetime(cfg), cfg.MovingSpeed))
	}

	g.totalGenerated.Add(uint64(len(batch)))
	return batch
}

// ValidatePlacement reports whether every candidate position is clear of
// the food cell, the snake head, every body segment, and the safety
// margin (Manhattan distance) around head and body.
func (g *Generator) ValidatePlacement(positions []grid.Position, snake grid.Snake, food grid.Position) bool {
	for _, pos := range positions {
		if pos == food {
			return false
		}
		// Equality is the distance-0 case of the margin check, but the
		// head/body hits are the contract, the margin is the buffer.
		if grid.Manhattan(pos, snake.Head) < DefaultSafetyMargin {
			return false
		}
		for _, seg := range snake.Body {
			if grid.Manhattan(pos, seg) < DefaultSafetyMargin {
				return false
			}
		}
	}
	return true
}

// GenerateValidPositions attempts up to count*10 uniform draws, keeping
// in-bounds positions outside forbidden and distinct within this call.
// Returns fewer than count when the attempt budget runs out, never an
// error.
func (g *Generator) GenerateValidPositions(count int, forbidden []grid.Position) []grid.Position {
	blocked := make(map[grid.Position]struct{}, len(forbidden)+count)
	for _, p := range forbidden {
		blocked[p] = struct{}{}
	}

	out := make([]grid.Position, 0, count)
	for attempts := 0; len(out) < count && attempts < count*10; attempts++ {
		candidate := g.randomPosition()
		if _, hit := blocked[candidate]; hit {
			continue
		}
		blocked[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}

// TotalGenerated returns the cumulative obstacle count across all batches.
func (g *Generator) TotalGenerated() uint64 { return g.totalGenerated.Load() }

// AverageGenerationTime returns cumulative generation time divided by the
// cumulative obstacle count, 0 before anything was generated.
func (g *Generator) AverageGenerationTime() time.Duration {
	total := g.totalGenerated.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(g.totalGenNs.Load() / total)
}

// ---------- randomness (shared rng, worker goroutines contend rarely) ----------

func (g *Generator) randomPosition() grid.Position {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return grid.Position{X: g.rng.Intn(g.bounds.Width), Y: g.rng.Intn(g.bounds.Height)}
}

func (g *Generator) drawFreePosition(taken map[grid.Position]struct{}, maxRetries int) (grid.Position, bool) {
	for retry := 0; retry < maxRetries; retry++ {
		pos := g.randomPosition()
		if _, hit := taken[pos]; !hit {
			return pos, true
		}
	}
	return grid.Position{}, false
}

func (g *Generator) randomLifetime(cfg Config) float64 {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return cfg.MinLifetime + g.rng.Float64()*(cfg.MaxLifetime-cfg.MinLifetime)
}

func (g *Generator) randomPattern(preferred []obstacle.Pattern) obstacle.Pattern {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	if len(preferred) > 0 {
		return preferred[g.rng.Intn(len(preferred))]
	}
	return obstacle.AllPatterns[g.rng.Intn(len(obstacle.AllPatterns))]
}
