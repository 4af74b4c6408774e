package tcp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/service/i"
)

var (
	ErrClientNotStarted = errors.New("client socket manager is not started")
	ErrClientStopped    = errors.New("client socket manager is stopped")
	ErrMultilineCommand = errors.New("command must be a single line")
)

const defaultMaxResponseLength = 16 << 20

var _ i.LineRequester = &ClientSocketManager{}

type ClientOption func(*ClientSocketManager)

// request is handed from a caller to the worker; the worker answers on reply exactly
// once.
type request struct {
	command string
	reply   chan response
}

type response struct {
	line string
	err  error
}

// ClientSocketManager owns one connection to a line server. A single worker goroutine
// does all socket I/O; callers block on SendCommand until the worker has their
// response. At most one request is in flight per connection.
type ClientSocketManager struct {
	conn     net.Conn       // Connection to the server.
	scanner  *bufio.Scanner // Line reader over conn.
	maxLine  int            // Longest accepted response line in bytes.
	requests chan request   // Rendezvous between callers and the worker.
	stop     chan struct{}  // Closed to stop the worker.
	done     chan struct{}  // Closed when the worker has exited.
	inFlight sync.Mutex     // Held for the whole round trip of a request.
	started  atomic.Bool
	startMu  sync.Mutex
	stopOnce sync.Once
	errMu    sync.Mutex
	err      error // Transport error that ended the worker.
	logger   i.Logger
}

// ClientConfig is a struct used to pass the required parameters to initialize a new
// ClientSocketManager.
type ClientConfig struct {
	ServerAddr  string        // TCP address of the server.
	DialTimeout time.Duration // Zero means no timeout.
}

// NewClientSocketManager dials the server. Call Start before sending commands.
func NewClientSocketManager(c ClientConfig, options ...ClientOption) (*ClientSocketManager, error) {
	conn, err := net.DialTimeout("tcp", c.ServerAddr, c.DialTimeout)
	if err != nil {
		return nil, err
	}

	return newClientSocketManager(conn, options...), nil
}

func newClientSocketManager(conn net.Conn, options ...ClientOption) *ClientSocketManager {
	c := &ClientSocketManager{
		conn:     conn,
		maxLine:  defaultMaxResponseLength,
		requests: make(chan request),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range options {
		opt(c)
	}
	c.scanner = newLineScanner(conn, c.maxLine)

	if c.logger == nil {
		c.logger = discardLogger{}
	}
	return c
}

// Start spawns the worker. Calling it more than once has no effect.
func (c *ClientSocketManager) Start() {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	select {
	case <-c.stop:
		return
	default:
	}
	if c.started.Swap(true) {
		return
	}
	go c.run()
}

// SendCommand sends one command line and blocks until its response line arrives. The
// response is returned verbatim. Concurrent callers are served one after another.
// Commands holding a line terminator are rejected with ErrMultilineCommand.
func (c *ClientSocketManager) SendCommand(command string) (string, error) {
	if strings.ContainsAny(command, "\r\n") {
		return "", ErrMultilineCommand
	}

	c.inFlight.Lock()
	defer c.inFlight.Unlock()
	return c.send(command)
}

// Stop ends the session and closes the connection. When no request is in flight the
// server is told to quit first.
func (c *ClientSocketManager) Stop() {
	c.stopOnce.Do(func() {
		if c.started.Load() && c.inFlight.TryLock() {
			if _, err := c.send(QuitLine); err != nil && !errors.Is(err, ErrClientStopped) {
				c.logger.Error(fmt.Sprintf("error while sending quit: %s", err))
			}
			c.inFlight.Unlock()
		}

		c.startMu.Lock()
		close(c.stop)
		c.startMu.Unlock()

		_ = c.conn.Close()
		if c.started.Load() {
			<-c.done
		}
		c.logger.Info(fmt.Sprintf("closed connection with server: %s", c.conn.RemoteAddr()))
	})
}

// Err returns the transport error that stopped the worker, if any.
func (c *ClientSocketManager) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *ClientSocketManager) send(command string) (string, error) {
	if !c.started.Load() {
		return "", ErrClientNotStarted
	}

	reply := make(chan response, 1)
	select {
	case c.requests <- request{command: command, reply: reply}:
	case <-c.done:
		if err := c.Err(); err != nil {
			return "", fmt.Errorf("%w: %s", ErrClientStopped, err)
		}
		return "", ErrClientStopped
	}

	res := <-reply
	return res.line, res.err
}

// run is the worker loop. It stops on Stop or on the first transport error.
func (c *ClientSocketManager) run() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		case req := <-c.requests:
			line, err := c.roundTrip(req.command)
			req.reply <- response{line: line, err: err}
			if err != nil {
				c.errMu.Lock()
				c.err = err
				c.errMu.Unlock()
				c.logger.Error(fmt.Sprintf("error while talking to server: %s", err))
				return
			}
		}
	}
}

// roundTrip writes one line and reads exactly one line back.
func (c *ClientSocketManager) roundTrip(command string) (string, error) {
	if _, err := io.WriteString(c.conn, command+"\n"); err != nil {
		return "", err
	}

	line, err := readLine(c.scanner)
	if errors.Is(err, io.EOF) {
		return "", io.ErrUnexpectedEOF
	}
	return line, err
}

// ClientWithMaxLineLength caps the length of a response line. A longer line is a
// transport error.
func ClientWithMaxLineLength(n int) ClientOption {
	return func(c *ClientSocketManager) {
		if n > 0 {
			c.maxLine = n
		}
	}
}

// ClientWithLogger sets the logger.
func ClientWithLogger(l i.Logger) ClientOption {
	return func(c *ClientSocketManager) {
		c.logger = l
	}
}
