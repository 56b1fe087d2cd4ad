package grid

import "testing"

func TestBoundsContains(t *testing.T) {
	b := Bounds{Width: 10, Height: 8}
	cases := []struct {
		p    Position
		want bool
	}{
		{Position{0, 0}, true},
		{Position{9, 7}, true},
		{Position{10, 7}, false},
		{Position{9, 8}, false},
		{Position{-1, 0}, false},
		{Position{0, -1}, false},
	}
	for _, c := range cases {
		if got := b.Contains(c.p); got != c.want {
			t.Fatalf("Contains(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestBoundsClamp(t *testing.T) {
	b := Bounds{Width: 10, Height: 8}
	cases := []struct {
		in, want Position
	}{
		{Position{5, 5}, Position{5, 5}},
		{Position{-3, 4}, Position{0, 4}},
		{Position{12, 4}, Position{9, 4}},
		{Position{4, -1}, Position{4, 0}},
		{Position{4, 99}, Position{4, 7}},
	}
	for _, c := range cases {
		if got := b.Clamp(c.in); got != c.want {
			t.Fatalf("Clamp(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDistances(t *testing.T) {
	a := Position{2, 3}
	b := Position{5, 1}
	if got := Manhattan(a, b); got != 5 {
		t.Fatalf("Manhattan = %d, want 5", got)
	}
	if got := Chebyshev(a, b); got != 3 {
		t.Fatalf("Chebyshev = %d, want 3", got)
	}
	if got := Manhattan(a, a); got != 0 {
		t.Fatalf("Manhattan(a, a) = %d, want 0", got)
	}
}

func TestSnakeOccupiesCell(t *testing.T) {
	s := Snake{
		Head: Position{4, 4},
		Body: []Position{{4, 5}, {4, 6}},
	}
	if !s.OccupiesCell(Position{4, 4}) {
		t.Fatalf("head cell not reported occupied")
	}
	if !s.OccupiesCell(Position{4, 6}) {
		t.Fatalf("body cell not reported occupied")
	}
	if s.OccupiesCell(Position{5, 4}) {
		t.Fatalf("free cell reported occupied")
	}
}
