package obstacle

// movement.go: stateless movement-pattern math for moving obstacles.
// Pure functions of (obstacle state, bounds, rng); no collection access,
// so the caller decides the locking discipline.

import (
	"math"
	"math/rand"

	"github.com/snakego/server/internal/grid"
)

const zigzagAmplitude = 3 // vertical oscillation range, in cells

// Step advances a moving obstacle one movement tick per its pattern.
// Fixed obstacles are untouched. The resulting position is always inside
// the given bounds.
func Step(o *Obstacle, b grid.Bounds, rng *rand.Rand) {
	if o.Kind != KindMoving {
		return
	}
	switch o.Pattern {
	case LinearHorizontal:
		stepLinear(o, &o.Pos.X, b.Width)
	case LinearVertical:
		stepLinear(o, &o.Pos.Y, b.Height)
	case Circular:
		stepCircular(o, b)
	case Zigzag:
		stepZigzag(o, b)
	case RandomWalk:
		stepRandomWalk(o, b, rng)
	}
	o.Pos = b.Clamp(o.Pos)
}

// stepLinear bounces along one axis. Speed paces the step rate: the phase
// accumulator gains Speed per tick and one whole cell of travel is spent
// per accumulated unit.
func stepLinear(o *Obstacle, axis *int, limit int) {
	o.Phase += o.Speed
	for o.Phase >= 1 {
		o.Phase -= 1
		next := *axis + o.Dir
		if next < 0 || next >= limit {
			o.Dir = -o.Dir
			next = *axis + o.Dir
		}
		if next >= 0 && next < limit {
			*axis = next
		}
	}
}

// stepCircular orbits the grid center at radius min(w,h)/4, phase in radians.
func stepCircular(o *Obstacle, b grid.Bounds) {
	o.Phase += o.Speed
	radius := b.Width
	if b.Height < radius {
		radius = b.Height
	}
	radius /= 4
	o.Pos.X = b.Width/2 + int(float64(radius)*math.Cos(o.Phase))
	o.Pos.Y = b.Height/2 + int(float64(radius)*math.Sin(o.Phase))
}

// stepZigzag bounces horizontally one cell per tick while the vertical
// position oscillates around the grid midline with bounded amplitude.
func stepZigzag(o *Obstacle, b grid.Bounds) {
	o.Phase += o.Speed
	next := o.Pos.X + o.Dir
	if next < 0 || next >= b.Width {
		o.Dir = -o.Dir
		next = o.Pos.X + o.Dir
	}
	if next >= 0 && next < b.Width {
		o.Pos.X = next
	}
	o.Pos.Y = b.Height/2 + int(zigzagAmplitude*math.Sin(o.Phase*2))
}

// stepRandomWalk takes one random 4-neighbour step whenever the phase
// accumulator crosses a 10-unit boundary; between boundaries the obstacle
// rests. The timer keeps walkers from jittering every tick.
func stepRandomWalk(o *Obstacle, b grid.Bounds, rng *rand.Rand) {
	if int(o.Phase)%10 == 0 {
		switch rng.Intn(4) {
		case 0:
			if o.Pos.Y > 0 {
				o.Pos.Y--
			}
		case 1:
			if o.Pos.Y < b.Height-1 {
				o.Pos.Y++
			}
		case 2:
			if o.Pos.X > 0 {
				o.Pos.X--
			}
		case 3:
			if o.Pos.X < b.Width-1 {
				o.Pos.X++
			}
		}
	}
	o.Phase += o.Speed
}
