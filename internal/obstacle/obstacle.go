package obstacle

import "github.com/snakego/server/internal/grid"

// Kind tags an obstacle as fixed-in-place or moving.
type Kind int

const (
	KindFixed Kind = iota
	KindMoving
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindMoving:
		return "moving"
	}
	return "unknown"
}

// Pattern selects the movement behavior of a moving obstacle.
type Pattern int

const (
	LinearHorizontal Pattern = iota
	LinearVertical
	Circular
	Zigzag
	RandomWalk

	patternCount = 5
)

// AllPatterns lists every movement pattern, for uniform random selection.
var AllPatterns = [patternCount]Pattern{
	LinearHorizontal, LinearVertical, Circular, Zigzag, RandomWalk,
}

func (p Pattern) String() string {
	switch p {
	case LinearHorizontal:
		return "linear_horizontal"
	case LinearVertical:
		return "linear_vertical"
	case Circular:
		return "circular"
	case Zigzag:
		return "zigzag"
	case RandomWalk:
		return "random_walk"
	}
	return "unknown"
}

// ParsePattern maps a config/YAML name to a Pattern. Second return is false
// for unrecognized names.
func ParsePattern(name string) (Pattern, bool) {
	switch name {
	case "linear_horizontal":
		return LinearHorizontal, true
	case "linear_vertical":
		return LinearVertical, true
	case "circular":
		return Circular, true
	case "zigzag":
		return Zigzag, true
	case "random_walk":
		return RandomWalk, true
	}
	return 0, false
}

// Default lifetimes match the original tuning: fixed blocks outlive movers.
const (
	DefaultFixedLifetime  = 12.0 // seconds
	DefaultMovingLifetime = 7.0
	DefaultMovingSpeed    = 0.05 // cells per movement tick

	// ExpiryEpsilon is the lifetime threshold below which an obstacle
	// counts as expired and becomes eligible for the next sweep.
	ExpiryEpsilon = 1e-6
)

// Obstacle is a single transient grid entity. It is owned by exactly one
// Store and is never handed across goroutine boundaries individually;
// only iterated under the manager's lock.
//
// Kind-specific movement state (Pattern, Phase, Dir, Speed) is meaningful
// only when Kind == KindMoving.
type Obstacle struct {
	Pos      grid.Position
	Kind     Kind
	Lifetime float64 // remaining seconds, never negative

	// Moving payload.
	Pattern Pattern
	Phase   float64 // accumulated movement counter
	Dir     int     // +1 or -1, flipped at grid edges
	Speed   float64
}

// NewFixed creates a fixed obstacle at pos.
func NewFixed(pos grid.Position, lifetime float64) *Obstacle {
	return &Obstacle{Pos: pos, Kind: KindFixed, Lifetime: lifetime}
}

// NewMoving creates a moving obstacle at pos with the given pattern.
func NewMoving(pos grid.Position, pattern Pattern, lifetime, speed float64) *Obstacle {
	return &Obstacle{
		Pos:      pos,
		Kind:     KindMoving,
		Lifetime: lifetime,
		Pattern:  pattern,
		Dir:      1,
		Speed:    speed,
	}
}

// Expired reports whether the remaining lifetime has reached zero.
// Expiry is detected eagerly but removal happens only at the next sweep,
// so an expired obstacle may still be observed in the collection.
func (o *Obstacle) Expired() bool {
	return o.Lifetime <= ExpiryEpsilon
}

// DecrementLifetime subtracts d seconds, flooring at exactly 0.
func (o *Obstacle) DecrementLifetime(d float64) {
	o.Lifetime -= d
	if o.Lifetime < 0 {
		o.Lifetime = 0
	}
}

// CollidesAt reports whether the obstacle occupies the given cell.
func (o *Obstacle) CollidesAt(x, y int) bool {
	return o.Pos.X == x && o.Pos.Y == y
}
