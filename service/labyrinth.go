package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/beka-birhanu/vinom-labyrinth/tcp"
)

// Protocol vocabulary shared by the server and its clients.
const (
	LabyrinthCommand     = "/getLabirynt"
	QuitCommand          = tcp.QuitLine
	ErrorResponse        = "ERROR"
	CommandErrorResponse = "COMMAND ERROR"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrInvalidArguments = errors.New("invalid labyrinth arguments")
	ErrMissingGenerator = errors.New("labyrinth service needs a generator and an encoder")
)

var (
	_ i.CommandHandler    = &Labyrinth{}
	_ i.LabyrinthProvider = &Labyrinth{}
)

// Labyrinth answers protocol commands with freshly generated mazes. It keeps no state
// between requests.
type Labyrinth struct {
	generator i.MazeGenerator
	encoder   i.SequenceEncoder
	logger    i.Logger
}

type Config struct {
	Generator i.MazeGenerator
	Encoder   i.SequenceEncoder
	Logger    i.Logger
}

func NewLabyrinth(c *Config) (*Labyrinth, error) {
	if c.Generator == nil || c.Encoder == nil {
		return nil, ErrMissingGenerator
	}

	l := &Labyrinth{
		generator: c.Generator,
		encoder:   c.Encoder,
		logger:    c.Logger,
	}
	if l.logger == nil {
		l.logger = discardLogger{}
	}
	return l, nil
}

// Handle implements i.CommandHandler. Every line gets exactly one response line; a
// panicking generator or encoder is answered with ERROR.
func (l *Labyrinth) Handle(line string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error(fmt.Sprintf("recovered while handling %q: %v", line, r))
			response = ErrorResponse
		}
	}()

	width, height, err := ParseLabyrinthCommand(line)
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return CommandErrorResponse
	case err != nil:
		l.logger.Error(fmt.Sprintf("parsing labyrinth command %q: %s", line, err))
		return ErrorResponse
	}

	encoded, err := l.Labyrinth(width, height)
	if err != nil {
		l.logger.Error(fmt.Sprintf("building labyrinth %dx%d: %s", width, height, err))
		return ErrorResponse
	}
	return encoded
}

// Labyrinth generates a maze of the given interior size and returns its encoded
// WallSequence.
func (l *Labyrinth) Labyrinth(width, height int) (string, error) {
	seq, err := l.generator.Generate(width, height)
	if err != nil {
		return "", err
	}

	encoded, err := l.encoder.Encode(seq)
	if err != nil {
		return "", err
	}

	l.logger.Info(fmt.Sprintf("generated labyrinth %dx%d with %d walls", width, height, len(seq)-2))
	return encoded, nil
}

// ParseLabyrinthCommand reads "/getLabirynt <width> <height>". Lines that do not start
// with the command name yield ErrUnknownCommand; anything else that does not match the
// grammar exactly yields ErrInvalidArguments.
func ParseLabyrinthCommand(line string) (int, int, error) {
	if !strings.HasPrefix(line, LabyrinthCommand) {
		return 0, 0, ErrUnknownCommand
	}

	parts := strings.Split(line, " ")
	if len(parts) != 3 || parts[0] != LabyrinthCommand {
		return 0, 0, fmt.Errorf("%w: want %s <width> <height>", ErrInvalidArguments, LabyrinthCommand)
	}

	width, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: width: %s", ErrInvalidArguments, err)
	}
	height, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: height: %s", ErrInvalidArguments, err)
	}
	return width, height, nil
}

// LabyrinthRequest formats the command asking for a maze of the given size.
func LabyrinthRequest(width, height int) string {
	return fmt.Sprintf("%s %d %d", LabyrinthCommand, width, height)
}

type discardLogger struct{}

func (discardLogger) Info(string)  {}
func (discardLogger) Error(string) {}
