package maze

import (
	"errors"
	"fmt"
)

var (
	ErrSequenceTooShort = errors.New("wall sequence needs start and goal markers")
	ErrOutOfGrid        = errors.New("coordinate outside the maze grid")
)

// Coordinate is a cell position. X is the column, Y the row.
type Coordinate struct {
	X int
	Y int
}

// Compare orders coordinates by X, then Y.
func (c Coordinate) Compare(o Coordinate) int {
	switch {
	case c.X < o.X:
		return -1
	case c.X > o.X:
		return 1
	case c.Y < o.Y:
		return -1
	case c.Y > o.Y:
		return 1
	}
	return 0
}

// Less reports whether c sorts before o.
func (c Coordinate) Less(o Coordinate) bool {
	return c.Compare(o) < 0
}

// String implements fmt.Stringer.
func (c Coordinate) String() string {
	return fmt.Sprintf("<%d, %d>", c.X, c.Y)
}

// WallSequence is the public form of a maze: the start marker, the wall cells in
// row-major order, then the goal marker.
type WallSequence []Coordinate

// Start returns the start marker.
func (s WallSequence) Start() Coordinate {
	return s[0]
}

// Goal returns the goal marker.
func (s WallSequence) Goal() Coordinate {
	return s[len(s)-1]
}

// Walls returns the wall coordinates between the two markers.
func (s WallSequence) Walls() []Coordinate {
	return s[1 : len(s)-1]
}

// Validate checks that the sequence carries both markers.
func (s WallSequence) Validate() error {
	if len(s) < 2 {
		return ErrSequenceTooShort
	}
	return nil
}

// Maze rebuilds the labyrinth described by the sequence. width and height are the
// interior size the sequence was generated for.
func (s WallSequence) Maze(width, height int) (*Maze, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	grid := NewGrid(width+2, height+2, Space)
	for _, c := range s {
		if !grid.InBound(c.X, c.Y) {
			return nil, fmt.Errorf("%w: %s in %dx%d", ErrOutOfGrid, c, grid.Width, grid.Height)
		}
	}
	for _, c := range s.Walls() {
		grid.Set(c.X, c.Y, Wall)
	}

	return &Maze{
		Grid:  grid,
		Start: s.Start(),
		Goal:  s.Goal(),
	}, nil
}
