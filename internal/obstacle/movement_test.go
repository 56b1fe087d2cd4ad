package obstacle

import (
	"math/rand"
	"testing"

	"github.com/snakego/server/internal/grid"
)

func TestStepKeepsEveryPatternInBounds(t *testing.T) {
	b := grid.Bounds{Width: 12, Height: 9}
	rng := rand.New(rand.NewSource(42))

	for _, p := range AllPatterns {
		o := NewMoving(grid.Position{X: 6, Y: 4}, p, 60, 0.5)
		for i := 0; i < 2000; i++ {
			Step(o, b, rng)
			if !b.Contains(o.Pos) {
				t.Fatalf("pattern %v escaped bounds at step %d: %v", p, i, o.Pos)
			}
		}
	}
}

func TestStepLinearHorizontalBounces(t *testing.T) {
	b := grid.Bounds{Width: 5, Height: 5}
	rng := rand.New(rand.NewSource(1))
	o := NewMoving(grid.Position{X: 4, Y: 2}, LinearHorizontal, 60, 1.0)

	seenLeft := false
	for i := 0; i < 20; i++ {
		Step(o, b, rng)
		if o.Pos.Y != 2 {
			t.Fatalf("horizontal mover drifted off its row: %v", o.Pos)
		}
		if o.Pos.X == 0 {
			seenLeft = true
		}
	}
	if !seenLeft {
		t.Fatalf("expected the mover to bounce back and reach the left edge")
	}
}

func TestStepRandomWalkOnlyMovesEveryTenthTick(t *testing.T) {
	b := grid.Bounds{Width: 20, Height: 20}
	rng := rand.New(rand.NewSource(7))
	o := NewMoving(grid.Position{X: 10, Y: 10}, RandomWalk, 60, 0.1)

	moves := 0
	prev := o.Pos
	for i := 0; i < 200; i++ {
		Step(o, b, rng)
		if o.Pos != prev {
			moves++
			if grid.Manhattan(o.Pos, prev) != 1 {
				t.Fatalf("random walk jumped more than one cell: %v -> %v", prev, o.Pos)
			}
			prev = o.Pos
		}
	}
	if moves == 0 {
		t.Fatalf("random walker never moved")
	}
	if moves > 40 {
		t.Fatalf("random walker moved %d times in 200 ticks, gate is broken", moves)
	}
}

func TestParsePattern(t *testing.T) {
	cases := []struct {
		name string
		want Pattern
		ok   bool
	}{
		{"linear_horizontal", LinearHorizontal, true},
		{"linear_vertical", LinearVertical, true},
		{"circular", Circular, true},
		{"zigzag", Zigzag, true},
		{"random_walk", RandomWalk, true},
		{"spiral", 0, false},
	}
	for _, c := range cases {
		got, ok := ParsePattern(c.name)
		if ok != c.ok {
			t.Fatalf("ParsePattern(%q) ok = %v, want %v", c.name, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("ParsePattern(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
