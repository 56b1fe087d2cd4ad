package grid

// Position is a cell coordinate on the play field.
type Position struct {
	X int
	Y int
}

// Bounds holds the immutable play-field dimensions, fixed at construction.
type Bounds struct {
	Width  int
	Height int
}

// Contains reports whether the position lies within [0,W) × [0,H).
func (b Bounds) Contains(p Position) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// Clamp forces a position into bounds.
func (b Bounds) Clamp(p Position) Position {
	if p.X < 0 {
		p.X = 0
	} else if p.X >= b.Width {
		p.X = b.Width - 1
	}
	if p.Y < 0 {
		p.Y = 0
	} else if p.Y >= b.Height {
		p.Y = b.Height - 1
	}
	return p
}

// Manhattan returns |dx| + |dy| between two positions.
func Manhattan(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Chebyshev returns max(|dx|, |dy|) between two positions.
func Chebyshev(a, b Position) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dy > dx {
		return dy
	}
	return dx
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Snake is the read-only view of the snake the obstacle subsystem consumes
// for collision and placement checks. The snake itself lives outside this
// module; callers pass a copy of the current tick's state.
type Snake struct {
	Head  Position
	Body  []Position
	Alive bool
}

// OccupiesCell reports whether the head or any body segment sits on p.
func (s Snake) OccupiesCell(p Position) bool {
	if s.Head == p {
		return true
	}
	for _, seg := range s.Body {
		if seg == p {
			return true
		}
	}
	return false
}
