package scape

import (
	"errors"
	"testing"
)

func TestWalkerMovesStayInBounds(t *testing.T) {
	bounds := Bounds{Width: 4, Height: 3}
	moves := []Action{ActionUp, ActionDown, ActionLeft, ActionRight}

	for x := 0; x < bounds.Width; x++ {
		for y := 0; y < bounds.Height; y++ {
			for _, move := range moves {
				start := Position{X: x, Y: y}
				walker, err := NewWalker(bounds, start)
				if err != nil {
					t.Fatalf("new walker at %s: %v", start, err)
				}
				walker.Apply(move)
				got := walker.Position()
				if !bounds.Contains(got) {
					t.Fatalf("move %s from %s left the grid: %s", move, start, got)
				}
				dx, dy := got.X-start.X, got.Y-start.Y
				if dx*dx+dy*dy > 1 {
					t.Fatalf("move %s from %s jumped to %s", move, start, got)
				}
			}
		}
	}
}

func TestWalkerMovesAreAxisConsistent(t *testing.T) {
	walker, err := NewWalker(Bounds{Width: 100, Height: 100}, Position{X: 50, Y: 50})
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}

	walker.MoveUp()
	if got := walker.Position(); got != (Position{X: 50, Y: 49}) {
		t.Fatalf("up: got %s", got)
	}
	walker.MoveDown()
	walker.MoveDown()
	if got := walker.Position(); got != (Position{X: 50, Y: 51}) {
		t.Fatalf("down: got %s", got)
	}
	walker.MoveLeft()
	if got := walker.Position(); got != (Position{X: 49, Y: 51}) {
		t.Fatalf("left: got %s", got)
	}
	walker.MoveRight()
	walker.MoveRight()
	if got := walker.Position(); got != (Position{X: 51, Y: 51}) {
		t.Fatalf("right: got %s", got)
	}
}

func TestWalkerClampsAtEveryEdge(t *testing.T) {
	bounds := Bounds{Width: 100, Height: 100}
	cases := []struct {
		start Position
		move  Action
	}{
		{start: Position{X: 10, Y: 0}, move: ActionUp},
		{start: Position{X: 10, Y: 99}, move: ActionDown},
		{start: Position{X: 0, Y: 10}, move: ActionLeft},
		{start: Position{X: 99, Y: 10}, move: ActionRight},
		// Right against the x bound must not consult y.
		{start: Position{X: 99, Y: 0}, move: ActionRight},
	}
	for _, tc := range cases {
		walker, err := NewWalker(bounds, tc.start)
		if err != nil {
			t.Fatalf("new walker: %v", err)
		}
		walker.Apply(tc.move)
		if got := walker.Position(); got != tc.start {
			t.Fatalf("move %s from %s should be a no-op, got %s", tc.move, tc.start, got)
		}
	}
}

func TestNewWalkerRejectsOutOfBoundsStart(t *testing.T) {
	_, err := NewWalker(Bounds{Width: 10, Height: 10}, Position{X: 10, Y: 0})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDistance(t *testing.T) {
	if got := Distance(Position{X: 0, Y: 0}, Position{X: 3, Y: 4}); got != 5 {
		t.Fatalf("expected 5, got %f", got)
	}
	if got := Distance(Position{X: 7, Y: 7}, Position{X: 7, Y: 7}); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}
