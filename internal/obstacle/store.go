package obstacle

import (
	"math/rand"

	"github.com/snakego/server/internal/grid"
)

// Spawn tuning baselines; difficulty scales both linearly.
const (
	baseSpawnRate    = 0.3  // obstacles per second at level 0
	spawnRateStep    = 0.1  // added per difficulty level
	baseMovingSpeed  = 0.05 // cells per movement tick at level 0
	movingSpeedStep  = 0.01
	fixedSpawnChance = 0.6 // remaining 40% spawn moving obstacles
)

// Store is the authoritative obstacle collection. It has single-goroutine
// semantics: no method is safe for concurrent use. The manager package
// wraps a Store behind a reader-writer lock; everything here assumes the
// caller already holds whatever lock applies.
//
// Iteration order is irrelevant, so removal swap-deletes.
type Store struct {
	bounds    grid.Bounds
	obstacles []*Obstacle
	rng       *rand.Rand

	difficulty  int
	spawnRate   float64 // spawns per second
	movingSpeed float64
	spawnTimer  float64 // accumulated seconds since last spawn
}

// NewStore creates an empty store for the given grid dimensions.
func NewStore(bounds grid.Bounds, rng *rand.Rand) *Store {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Store{
		bounds:      bounds,
		rng:         rng,
		difficulty:  1,
		spawnRate:   baseSpawnRate + spawnRateStep,
		movingSpeed: baseMovingSpeed + movingSpeedStep,
	}
}

// Bounds returns the immutable grid dimensions.
func (s *Store) Bounds() grid.Bounds { return s.bounds }

// SpawnFixed places a fixed obstacle. Out-of-bounds or occupied targets
// are absorbed silently: spawning is opportunistic, rejection is expected.
func (s *Store) SpawnFixed(pos grid.Position, lifetime float64) {
	if !s.bounds.Contains(pos) || s.CollidesAt(pos.X, pos.Y) {
		return
	}
	s.obstacles = append(s.obstacles, NewFixed(pos, lifetime))
}

// SpawnMoving places a moving obstacle with the given pattern. Same
// silent-rejection semantics as SpawnFixed.
func (s *Store) SpawnMoving(pos grid.Position, pattern Pattern, lifetime float64) {
	if !s.bounds.Contains(pos) || s.CollidesAt(pos.X, pos.Y) {
		return
	}
	s.obstacles = append(s.obstacles, NewMoving(pos, pattern, lifetime, s.movingSpeed))
}

// SpawnRandom draws one uniform random cell and spawns there. If the cell
// is occupied the call is skipped; retry loops belong to the generation
// pool, not the store. 60% of successful spawns are fixed, 40% moving
// with a uniformly chosen pattern.
func (s *Store) SpawnRandom() {
	pos := grid.Position{X: s.rng.Intn(s.bounds.Width), Y: s.rng.Intn(s.bounds.Height)}
	if s.CollidesAt(pos.X, pos.Y) {
		return
	}
	if s.rng.Float64() < fixedSpawnChance {
		s.SpawnFixed(pos, DefaultFixedLifetime)
	} else {
		pattern := AllPatterns[s.rng.Intn(len(AllPatterns))]
		s.SpawnMoving(pos, pattern, DefaultMovingLifetime)
	}
}

// Insert adds an externally built obstacle (a generation-pool result) if
// its cell is in bounds and free. Returns false when the obstacle was
// rejected.
func (s *Store) Insert(o *Obstacle) bool {
	if o == nil || !s.bounds.Contains(o.Pos) || s.CollidesAt(o.Pos.X, o.Pos.Y) {
		return false
	}
	s.obstacles = append(s.obstacles, o)
	return true
}

// UpdateMovement advances every moving obstacle one movement tick.
// Position mutation races with the lifetime goroutine's decay on the same
// entities, so callers must hold the exclusive lock.
func (s *Store) UpdateMovement() {
	for _, o := range s.obstacles {
		Step(o, s.bounds, s.rng)
	}
}

// Decay subtracts d seconds from every obstacle's remaining lifetime,
// flooring at zero.
func (s *Store) Decay(d float64) {
	for _, o := range s.obstacles {
		o.DecrementLifetime(d)
	}
}

// SweepExpired removes every obstacle whose lifetime has reached zero and
// returns how many were removed.
func (s *Store) SweepExpired() int {
	removed := 0
	for i := 0; i < len(s.obstacles); {
		if s.obstacles[i].Expired() {
			last := len(s.obstacles) - 1
			s.obstacles[i] = s.obstacles[last]
			s.obstacles[last] = nil
			s.obstacles = s.obstacles[:last]
			removed++
			continue
		}
		i++
	}
	return removed
}

// ClearAll removes every obstacle.
func (s *Store) ClearAll() {
	for i := range s.obstacles {
		s.obstacles[i] = nil
	}
	s.obstacles = s.obstacles[:0]
}

// CollidesAt reports whether any obstacle occupies the cell.
func (s *Store) CollidesAt(x, y int) bool {
	for _, o := range s.obstacles {
		if o.CollidesAt(x, y) {
			return true
		}
	}
	return false
}

// IsFree reports whether no obstacle occupies the cell. Food placement
// uses this to avoid dropping food inside an obstacle.
func (s *Store) IsFree(x, y int) bool {
	return !s.CollidesAt(x, y)
}

// CollidesWithSnake reports whether any obstacle occupies the snake's
// head cell.
func (s *Store) CollidesWithSnake(snake grid.Snake) bool {
	return s.CollidesAt(snake.Head.X, snake.Head.Y)
}

// Count returns the total obstacle count.
func (s *Store) Count() int { return len(s.obstacles) }

// CountByKind returns the number of obstacles of the given kind.
func (s *Store) CountByKind(kind Kind) int {
	n := 0
	for _, o := range s.obstacles {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// ForEach visits every obstacle. Callers must not retain references past
// the enclosing lock scope.
func (s *Store) ForEach(fn func(*Obstacle)) {
	for _, o := range s.obstacles {
		fn(o)
	}
}

// Positions returns a snapshot of every occupied cell, for feeding the
// generation pool's forbidden set.
func (s *Store) Positions() []grid.Position {
	out := make([]grid.Position, 0, len(s.obstacles))
	for _, o := range s.obstacles {
		out = append(out, o.Pos)
	}
	return out
}

// SetDifficulty derives spawn rate and moving speed from the level:
// spawnRate = 0.3 + level*0.1, movingSpeed = 0.05 + level*0.01. The new
// speed also applies to already-live moving obstacles.
func (s *Store) SetDifficulty(level int) {
	s.difficulty = level
	s.spawnRate = baseSpawnRate + float64(level)*spawnRateStep
	s.SetMovingSpeed(baseMovingSpeed + float64(level)*movingSpeedStep)
}

// SetSpawnRate overrides the spawn rate in obstacles per second.
func (s *Store) SetSpawnRate(perSecond float64) {
	s.spawnRate = perSecond
}

// SetMovingSpeed overrides the moving speed and retunes live movers.
func (s *Store) SetMovingSpeed(speed float64) {
	s.movingSpeed = speed
	for _, o := range s.obstacles {
		if o.Kind == KindMoving {
			o.Speed = speed
		}
	}
}

// Difficulty returns the current difficulty level.
func (s *Store) Difficulty() int { return s.difficulty }

// SpawnRate returns the current spawn rate in obstacles per second.
func (s *Store) SpawnRate() float64 { return s.spawnRate }

// MovingSpeed returns the current moving-obstacle speed.
func (s *Store) MovingSpeed() float64 { return s.movingSpeed }

// ShouldSpawn accumulates dt against the spawn interval (1/spawnRate) and
// reports whether a spawn is due, resetting the timer when it is.
func (s *Store) ShouldSpawn(dt float64) bool {
	if s.spawnRate <= 0 {
		return false
	}
	s.spawnTimer += dt
	if s.spawnTimer >= 1/s.spawnRate {
		s.spawnTimer = 0
		return true
	}
	return false
}
