package scape

import (
	"fmt"
	"math"
)

// Position is an integer grid coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Bounds is the half-open rectangle [0, Width) x [0, Height).
type Bounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (b Bounds) Contains(p Position) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// Distance is the euclidean distance between two grid positions.
func Distance(a, b Position) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Walker is the controlled body inside a grid. Every move checks only the
// bound of the axis it changes and is a no-op against that bound.
type Walker struct {
	bounds Bounds
	pos    Position
}

func NewWalker(bounds Bounds, start Position) (*Walker, error) {
	if !bounds.Contains(start) {
		return nil, fmt.Errorf("%w: start %s outside %dx%d grid", ErrInvalidConfig, start, bounds.Width, bounds.Height)
	}
	return &Walker{bounds: bounds, pos: start}, nil
}

func (w *Walker) Position() Position {
	return w.pos
}

func (w *Walker) MoveUp() {
	if w.pos.Y == 0 {
		return
	}
	w.pos.Y--
}

func (w *Walker) MoveDown() {
	if w.pos.Y == w.bounds.Height-1 {
		return
	}
	w.pos.Y++
}

func (w *Walker) MoveLeft() {
	if w.pos.X == 0 {
		return
	}
	w.pos.X--
}

func (w *Walker) MoveRight() {
	if w.pos.X == w.bounds.Width-1 {
		return
	}
	w.pos.X++
}

// Apply dispatches a to the matching move.
func (w *Walker) Apply(a Action) {
	switch a {
	case ActionUp:
		w.MoveUp()
	case ActionDown:
		w.MoveDown()
	case ActionLeft:
		w.MoveLeft()
	case ActionRight:
		w.MoveRight()
	}
}
