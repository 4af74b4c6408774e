package service

import (
	"errors"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/maze"
	pb "github.com/beka-birhanu/vinom-labyrinth/maze/pb_encoder"
	"github.com/beka-birhanu/vinom-labyrinth/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixedSeed = 1981

func newTestLabyrinth(t *testing.T) (*Labyrinth, *maze.Generator) {
	t.Helper()
	gen := maze.NewGenerator(
		maze.WithRandSource(maze.FixedSource(fixedSeed)),
		maze.WithMaxDimension(100),
	)
	l, err := NewLabyrinth(&Config{
		Generator: gen,
		Encoder:   &pb.Protobuf{},
	})
	require.NoError(t, err)
	return l, gen
}

type fakeRequester struct {
	response string
	err      error
	sent     []string
}

func (f *fakeRequester) SendCommand(command string) (string, error) {
	f.sent = append(f.sent, command)
	return f.response, f.err
}

type panickingGenerator struct{}

func (panickingGenerator) Generate(int, int) (maze.WallSequence, error) {
	panic("generator exploded")
}

func TestParseLabyrinthCommand(t *testing.T) {
	tests := []struct {
		line   string
		width  int
		height int
		err    error
	}{
		{line: "/getLabirynt 5 7", width: 5, height: 7},
		{line: "/getLabirynt -3 0", width: -3, height: 0},
		{line: "/getLabirynt abc 5", err: ErrInvalidArguments},
		{line: "/getLabirynt 5", err: ErrInvalidArguments},
		{line: "/getLabirynt 5 5 5", err: ErrInvalidArguments},
		{line: "/getLabirynt  5 5", err: ErrInvalidArguments},
		{line: "/getLabirynt", err: ErrInvalidArguments},
		{line: "/getLabiryntX 5 5", err: ErrInvalidArguments},
		{line: "/hello", err: ErrUnknownCommand},
		{line: "", err: ErrUnknownCommand},
		{line: " /getLabirynt 5 5", err: ErrUnknownCommand},
		{line: QuitCommand, err: ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			width, height, err := ParseLabyrinthCommand(tt.line)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.width, width)
			assert.Equal(t, tt.height, height)
		})
	}
}

func TestLabyrinth(t *testing.T) {
	t.Run("Missing collaborators", func(t *testing.T) {
		_, err := NewLabyrinth(&Config{Encoder: &pb.Protobuf{}})
		assert.ErrorIs(t, err, ErrMissingGenerator)

		_, err = NewLabyrinth(&Config{Generator: maze.NewGenerator()})
		assert.ErrorIs(t, err, ErrMissingGenerator)
	})

	t.Run("Handle answers with the encoded maze", func(t *testing.T) {
		l, gen := newTestLabyrinth(t)
		want, err := gen.Generate(5, 5)
		require.NoError(t, err)

		res := l.Handle(LabyrinthRequest(5, 5))
		got, err := (&pb.Protobuf{}).Decode(res)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		for _, c := range got {
			assert.True(t, c.X >= 0 && c.X <= 6 && c.Y >= 0 && c.Y <= 6, "%s out of range", c)
		}
	})

	t.Run("Handle rejections", func(t *testing.T) {
		l, _ := newTestLabyrinth(t)
		tests := map[string]string{
			"/getLabirynt abc 5": ErrorResponse,
			"/getLabirynt 5":     ErrorResponse,
			"/getLabirynt 0 5":   ErrorResponse,
			"/getLabirynt 5 -1":  ErrorResponse,
			"/getLabirynt 101 5": ErrorResponse,
			"/hello":             CommandErrorResponse,
			"":                   CommandErrorResponse,
			QuitCommand:          CommandErrorResponse,
		}
		for line, want := range tests {
			assert.Equal(t, want, l.Handle(line), line)
		}
	})

	t.Run("Labyrinth reports generator errors", func(t *testing.T) {
		l, _ := newTestLabyrinth(t)
		_, err := l.Labyrinth(1, 1)
		assert.ErrorIs(t, err, maze.ErrInvalidDimension)
	})

	t.Run("Panicking generator is answered with ERROR", func(t *testing.T) {
		l, err := NewLabyrinth(&Config{
			Generator: panickingGenerator{},
			Encoder:   &pb.Protobuf{},
		})
		require.NoError(t, err)

		assert.NotPanics(t, func() {
			assert.Equal(t, ErrorResponse, l.Handle(LabyrinthRequest(5, 5)))
		})
		assert.Equal(t, CommandErrorResponse, l.Handle("/hello"))
	})
}

func TestLabyrinthClient(t *testing.T) {
	encoder := &pb.Protobuf{}

	t.Run("Decodes the response", func(t *testing.T) {
		seq := maze.WallSequence{{X: 2, Y: 0}, {X: 4, Y: 6}, {X: 0, Y: 0}, {X: 1, Y: 1}}
		encoded, err := encoder.Encode(seq)
		require.NoError(t, err)

		r := &fakeRequester{response: encoded}
		got, err := NewLabyrinthClient(r, encoder).Labyrinth(5, 5)
		require.NoError(t, err)
		assert.Equal(t, seq, got)
		assert.Equal(t, []string{"/getLabirynt 5 5"}, r.sent)
	})

	t.Run("Server rejections", func(t *testing.T) {
		for _, res := range []string{ErrorResponse, CommandErrorResponse} {
			_, err := NewLabyrinthClient(&fakeRequester{response: res}, encoder).Labyrinth(5, 5)
			assert.ErrorIs(t, err, ErrServerRejected)
		}
	})

	t.Run("Undecodable response", func(t *testing.T) {
		_, err := NewLabyrinthClient(&fakeRequester{response: "not a maze"}, encoder).Labyrinth(5, 5)
		assert.ErrorIs(t, err, pb.ErrDecode)
	})

	t.Run("Sequence without markers", func(t *testing.T) {
		encoded, err := encoder.Encode(maze.WallSequence{{X: 2, Y: 0}})
		require.NoError(t, err)

		_, err = NewLabyrinthClient(&fakeRequester{response: encoded}, encoder).Labyrinth(5, 5)
		assert.ErrorIs(t, err, maze.ErrSequenceTooShort)
	})

	t.Run("Transport error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewLabyrinthClient(&fakeRequester{err: boom}, encoder).Labyrinth(5, 5)
		assert.ErrorIs(t, err, boom)
	})
}

func TestLabyrinthOverTCP(t *testing.T) {
	l, gen := newTestLabyrinth(t)
	server, err := tcp.NewServerSocketManager(tcp.ServerConfig{
		ListenAddr: "127.0.0.1:0",
		Handler:    l,
	})
	require.NoError(t, err)
	go func() { _ = server.Serve() }()
	defer server.Stop()

	t.Run("Fetch one maze", func(t *testing.T) {
		want, err := gen.Generate(9, 7)
		require.NoError(t, err)

		got, err := FetchLabyrinth(server.GetAddr(), time.Second, &pb.Protobuf{}, 9, 7)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Eventually(t, func() bool { return len(server.Connections()) == 0 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("Rejected request", func(t *testing.T) {
		_, err := FetchLabyrinth(server.GetAddr(), time.Second, &pb.Protobuf{}, 0, 7)
		assert.ErrorIs(t, err, ErrServerRejected)
	})

	t.Run("Session with several requests", func(t *testing.T) {
		client, err := tcp.NewClientSocketManager(tcp.ClientConfig{ServerAddr: server.GetAddr(), DialTimeout: time.Second})
		require.NoError(t, err)
		client.Start()
		defer client.Stop()

		res, err := client.SendCommand("/hello")
		require.NoError(t, err)
		assert.Equal(t, CommandErrorResponse, res)

		res, err = client.SendCommand("/getLabirynt abc 5")
		require.NoError(t, err)
		assert.Equal(t, ErrorResponse, res)

		seq, err := NewLabyrinthClient(client, &pb.Protobuf{}).Labyrinth(3, 3)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(seq), 2)
	})
}
