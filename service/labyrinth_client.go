package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/maze"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/beka-birhanu/vinom-labyrinth/tcp"
)

var (
	ErrServerRejected = errors.New("server rejected labyrinth request")
)

// LabyrinthClient asks a labyrinth server for mazes over a line requester and decodes
// the answers.
type LabyrinthClient struct {
	requester i.LineRequester
	decoder   i.SequenceEncoder
}

func NewLabyrinthClient(r i.LineRequester, d i.SequenceEncoder) *LabyrinthClient {
	return &LabyrinthClient{
		requester: r,
		decoder:   d,
	}
}

// Labyrinth requests a maze of the given interior size. ERROR and COMMAND ERROR
// answers yield ErrServerRejected; undecodable answers yield the decoder's error.
func (lc *LabyrinthClient) Labyrinth(width, height int) (maze.WallSequence, error) {
	res, err := lc.requester.SendCommand(LabyrinthRequest(width, height))
	if err != nil {
		return nil, err
	}

	if res == ErrorResponse || res == CommandErrorResponse {
		return nil, fmt.Errorf("%w: %s", ErrServerRejected, res)
	}

	seq, err := lc.decoder.Decode(res)
	if err != nil {
		return nil, err
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	return seq, nil
}

// FetchLabyrinth connects to addr, requests one maze and disconnects.
func FetchLabyrinth(addr string, dialTimeout time.Duration, d i.SequenceEncoder, width, height int) (maze.WallSequence, error) {
	client, err := tcp.NewClientSocketManager(tcp.ClientConfig{
		ServerAddr:  addr,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, err
	}
	client.Start()
	defer client.Stop()

	return NewLabyrinthClient(client, d).Labyrinth(width, height)
}
