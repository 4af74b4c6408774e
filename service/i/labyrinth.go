package i

import (
	"context"

	"github.com/beka-birhanu/vinom-labyrinth/maze"
)

// MazeGenerator builds labyrinths of a given interior size.
type MazeGenerator interface {
	Generate(width, height int) (maze.WallSequence, error)
}

// SequenceEncoder converts wall sequences to and from single-line strings.
type SequenceEncoder interface {
	Encode(maze.WallSequence) (string, error)
	Decode(string) (maze.WallSequence, error)
}

// LineRequester sends one command line and returns its response line.
type LineRequester interface {
	SendCommand(command string) (string, error)
}

// SortedSet is a scored set of members shared between server instances.
type SortedSet interface {
	Add(ctx context.Context, key string, score float64, member string) error
	Remove(ctx context.Context, key string, member string) error
	Members(ctx context.Context, key string) ([]string, error)
	Count(ctx context.Context, key string) int64

	// Refresh extends the expiration of key.
	Refresh(ctx context.Context, key string) error

	// Reset drops every member of key.
	Reset(ctx context.Context, key string) error
}

// ConnectionCounter counts live connections across every server instance.
type ConnectionCounter interface {
	Total(ctx context.Context) (int64, error)
}

// Logger is the logging surface used by the labyrinth components.
type Logger interface {
	Info(string)
	Error(string)
}

// LabyrinthProvider hands out encoded labyrinths.
type LabyrinthProvider interface {
	Labyrinth(width, height int) (string, error)
}
