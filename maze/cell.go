package maze

import "strings"

// CellKind is the content of a single grid cell.
type CellKind byte

const (
	Wall  CellKind = iota // Wall is impassable.
	Space                 // Space is open corridor.
)

// String implements fmt.Stringer.
func (k CellKind) String() string {
	if k == Wall {
		return "WALL"
	}
	return "SPACE"
}

// Grid is a rectangular array of cells stored row-major (Cells[y][x]).
type Grid struct {
	Width  int          // Number of columns.
	Height int          // Number of rows.
	Cells  [][]CellKind // Cells indexed by row, then column.
}

// NewGrid allocates a grid with every cell set to fill.
func NewGrid(width, height int, fill CellKind) *Grid {
	cells := make([][]CellKind, height)
	for y := range cells {
		cells[y] = make([]CellKind, width)
		for x := range cells[y] {
			cells[y][x] = fill
		}
	}

	return &Grid{
		Width:  width,
		Height: height,
		Cells:  cells,
	}
}

// InBound reports whether (x, y) lies inside the grid.
func (g *Grid) InBound(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// At returns the kind of the cell at (x, y). Out of bound cells read as Space.
func (g *Grid) At(x, y int) CellKind {
	if !g.InBound(x, y) {
		return Space
	}
	return g.Cells[y][x]
}

// Set changes the cell at (x, y); out of bound writes are ignored.
func (g *Grid) Set(x, y int, kind CellKind) {
	if g.InBound(x, y) {
		g.Cells[y][x] = kind
	}
}

// IsBorder reports whether (x, y) is on the outer ring of the grid.
func (g *Grid) IsBorder(x, y int) bool {
	return x == 0 || y == 0 || x == g.Width-1 || y == g.Height-1
}

// String provides a textual representation of the grid.
func (g *Grid) String() string {
	var output strings.Builder
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Cells[y][x] == Wall {
				output.WriteByte('#')
			} else {
				output.WriteByte(' ')
			}
		}
		output.WriteByte('\n')
	}
	return output.String()
}
