/*
Package maze provides tools for creating rectangular labyrinths.

A labyrinth is a Grid of WALL and SPACE cells surrounded by a SPACE border corridor.
Passages are carved two cells at a time from a start opening near the top edge, which
keeps a one-cell-wide wall lattice between parallel corridors. The goal opening near the
bottom edge is only marked, never carved to, so reaching it through the interior is not
guaranteed; Reachable reports it.

The public form of a labyrinth is a WallSequence: start marker, walls in row-major
order, goal marker.
*/
package maze

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	// Interior dimensions below this leave no even start column or carve row.
	minDimension        = 2
	defaultMaxDimension = 500

	maxCarveFailures = 20
)

var (
	// directions are indexed by the random draw; the order is part of the generated shape.
	directions = []Coordinate{
		{X: 1, Y: 0},
		{X: -1, Y: 0},
		{X: 0, Y: 1},
		{X: 0, Y: -1},
	}

	ErrInvalidDimension = errors.New("invalid maze dimensions")
)

// Maze is a generated labyrinth with its start and goal openings.
type Maze struct {
	Grid  *Grid      // Padded grid, border included.
	Start Coordinate // Start opening, connected to the carved interior.
	Goal  Coordinate // Goal opening, marked only.
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// Generator builds labyrinths. It holds no per-maze state and is safe for concurrent use
// as long as its RandSource is.
type Generator struct {
	maxDimension int        // Largest accepted interior width or height.
	source       RandSource // Random stream factory, called once per maze.
}

// NewGenerator returns a generator with a fresh random stream per maze unless
// configured otherwise.
func NewGenerator(options ...GeneratorOption) *Generator {
	g := &Generator{}
	for _, opt := range options {
		opt(g)
	}

	if g.maxDimension <= 0 {
		g.maxDimension = defaultMaxDimension
	}
	if g.source == nil {
		g.source = RandomSource()
	}
	return g
}

// Generate builds a labyrinth with the given interior size and returns its WallSequence.
func (g *Generator) Generate(width, height int) (WallSequence, error) {
	m, err := g.NewMaze(width, height)
	if err != nil {
		return nil, err
	}
	return m.WallSequence(), nil
}

// NewMaze builds a labyrinth with the given interior size. The grid is padded by one
// cell on every side.
func (g *Generator) NewMaze(width, height int) (*Maze, error) {
	if min(width, height) < minDimension || max(width, height) > g.maxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}

	rnd := g.source()
	w, h := width+2, height+2

	grid := NewGrid(w, h, Wall)
	for x := 0; x < w; x++ {
		grid.Set(x, 0, Space)
		grid.Set(x, h-1, Space)
	}
	for y := 0; y < h; y++ {
		grid.Set(0, y, Space)
		grid.Set(w-1, y, Space)
	}

	xStart := randomEvenColumn(rnd, w)
	xMeta := randomEvenColumn(rnd, w)

	grid.Set(xStart, 2, Space)
	carve(grid, Coordinate{X: xStart, Y: 2}, rnd)
	grid.Set(xStart, 1, Space)

	grid.Set(xMeta, h-2, Space)

	return &Maze{
		Grid:  grid,
		Start: Coordinate{X: xStart, Y: 1},
		Goal:  Coordinate{X: xMeta, Y: h - 2},
	}, nil
}

// randomEvenColumn draws from [2, width-2] until the value is even.
func randomEvenColumn(rnd *rand.Rand, width int) int {
	x := rnd.Intn(width-3) + 2
	for x%2 != 0 {
		x = rnd.Intn(width-3) + 2
	}
	return x
}

// carveFrame is one pending position of the carving walk.
type carveFrame struct {
	pos      Coordinate
	dir      int
	failures int
}

// carve opens passages two cells at a time starting at from. A position is abandoned
// after maxCarveFailures blocked directions, and the walk resumes at the previous one.
func carve(grid *Grid, from Coordinate, rnd *rand.Rand) {
	stack := []carveFrame{{pos: from, dir: rnd.Intn(len(directions))}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.failures >= maxCarveFailures {
			stack = stack[:len(stack)-1]
			continue
		}

		d := directions[top.dir]
		one := Coordinate{X: top.pos.X + d.X, Y: top.pos.Y + d.Y}
		two := Coordinate{X: one.X + d.X, Y: one.Y + d.Y}
		if grid.At(one.X, one.Y) == Wall && grid.At(two.X, two.Y) == Wall {
			grid.Set(one.X, one.Y, Space)
			grid.Set(two.X, two.Y, Space)
			stack = append(stack, carveFrame{pos: two, dir: rnd.Intn(len(directions))})
			continue
		}

		top.dir = rnd.Intn(len(directions))
		top.failures++
	}
}

// WallSequence lists the start marker, every wall cell in row-major order, and the goal
// marker.
func (m *Maze) WallSequence() WallSequence {
	seq := WallSequence{m.Start}
	for y := 0; y < m.Grid.Height; y++ {
		for x := 0; x < m.Grid.Width; x++ {
			if m.Grid.Cells[y][x] == Wall {
				seq = append(seq, Coordinate{X: x, Y: y})
			}
		}
	}
	return append(seq, m.Goal)
}

// Reachable reports whether the goal can be walked to from the start over SPACE cells.
// With includeBorder false the border corridor is off limits.
func (m *Maze) Reachable(includeBorder bool) bool {
	passable := func(c Coordinate) bool {
		if !m.Grid.InBound(c.X, c.Y) || m.Grid.Cells[c.Y][c.X] != Space {
			return false
		}
		return includeBorder || !m.Grid.IsBorder(c.X, c.Y)
	}

	if !passable(m.Start) || !passable(m.Goal) {
		return false
	}

	visited := map[Coordinate]struct{}{m.Start: {}}
	queue := []Coordinate{m.Start}
	for len(queue) > 0 {
		cell := queue[0]
		queue = queue[1:]
		if cell == m.Goal {
			return true
		}

		for _, d := range directions {
			next := Coordinate{X: cell.X + d.X, Y: cell.Y + d.Y}
			if _, seen := visited[next]; seen || !passable(next) {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return false
}

// String provides a textual representation of the maze with S and G for the openings.
func (m *Maze) String() string {
	rows := []byte(m.Grid.String())
	mark := func(c Coordinate, b byte) {
		rows[c.Y*(m.Grid.Width+1)+c.X] = b
	}
	mark(m.Start, 'S')
	mark(m.Goal, 'G')
	return string(rows)
}

// WithMaxDimension caps the interior width and height.
func WithMaxDimension(n int) GeneratorOption {
	return func(g *Generator) {
		g.maxDimension = n
	}
}

// WithRandSource sets the random stream factory.
func WithRandSource(s RandSource) GeneratorOption {
	return func(g *Generator) {
		g.source = s
	}
}
