package scape

import "golang.org/x/exp/rand"

// Spawner produces the next goal position.
type Spawner interface {
	Spawn() Position
}

// IntSource is the subset of a random generator the goal spawner draws from.
type IntSource interface {
	Intn(n int) int
}

// GoalSpawner draws each coordinate independently and uniformly from the
// grid bounds. It keeps no memory of earlier goals.
type GoalSpawner struct {
	bounds Bounds
	src    IntSource
}

func NewGoalSpawner(bounds Bounds, src IntSource) *GoalSpawner {
	return &GoalSpawner{bounds: bounds, src: src}
}

// NewSeededGoalSpawner uses a private PCG source, so spawners built from the
// same seed yield the same goal sequence.
func NewSeededGoalSpawner(bounds Bounds, seed uint64) *GoalSpawner {
	return NewGoalSpawner(bounds, rand.New(rand.NewSource(seed)))
}

func (s *GoalSpawner) Spawn() Position {
	return Position{
		X: s.src.Intn(s.bounds.Width),
		Y: s.src.Intn(s.bounds.Height),
	}
}
