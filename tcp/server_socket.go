package tcp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/beka-birhanu/vinom-labyrinth/service/i"
)

const (
	// QuitLine ends a session once it has been answered.
	QuitLine = "/QUIT"

	defaultMaxRequestLength = 4 << 10
)

var (
	ErrMissingHandler = errors.New("server socket manager needs a command handler")
)

var _ i.ServerSocketManager = &ServerSocketManager{}

type ServerOption func(*ServerSocketManager)

// ServerSocketManager is a TCP line server. Every accepted connection gets its own
// goroutine that answers each request line with exactly one response line.
type ServerSocketManager struct {
	listener net.Listener     // Listener to accept from.
	handler  i.CommandHandler // Turns a request line into a response line.
	registry *Registry        // Live connections.
	logger   i.Logger         // Logger.
	stop     chan struct{}    // Closed when the server is stopping.
	maxLine  int              // Longest accepted request line in bytes.
	stopOnce sync.Once
	wg       sync.WaitGroup // Tracks connection goroutines.
	wgLock   sync.Mutex     // Orders wg.Add in Serve against wg.Wait in Stop.
}

// ServerConfig is a struct used to pass the required parameters to initialize a new
// ServerSocketManager.
type ServerConfig struct {
	ListenAddr string           // TCP address to listen on.
	Handler    i.CommandHandler // Command handler called for every request line.
}

// NewServerSocketManager starts listening on the configured address.
func NewServerSocketManager(c ServerConfig, options ...ServerOption) (*ServerSocketManager, error) {
	if c.Handler == nil {
		return nil, ErrMissingHandler
	}

	listener, err := net.Listen("tcp", c.ListenAddr)
	if err != nil {
		return nil, err
	}

	s := &ServerSocketManager{
		listener: listener,
		handler:  c.Handler,
		stop:     make(chan struct{}),
		maxLine:  defaultMaxRequestLength,
	}

	for _, opt := range options {
		opt(s)
	}

	if s.logger == nil {
		s.logger = discardLogger{}
	}
	if s.registry == nil {
		s.registry = NewRegistry(RegistryWithLogger(s.logger))
	}

	return s, nil
}

// Serve accepts connections until Stop is called.
func (s *ServerSocketManager) Serve() error {
	s.logger.Info(fmt.Sprintf("server listening on tcp address: %s", s.GetAddr()))
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stop:
				return nil
			default:
			}
			s.logger.Error(fmt.Sprintf("error while accepting connection: %s", err))
			return err
		}

		s.wgLock.Lock()
		select {
		case <-s.stop:
			s.wgLock.Unlock()
			_ = conn.Close()
			return nil
		default:
		}
		s.wg.Add(1)
		s.wgLock.Unlock()

		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// Stop closes the listener and every live connection, then waits for the connection
// goroutines to finish.
func (s *ServerSocketManager) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("server stopping gracefully...")
		s.wgLock.Lock()
		close(s.stop)
		s.wgLock.Unlock()

		_ = s.listener.Close()
		s.registry.CloseAll()
		s.wg.Wait()
		s.logger.Info("server stopped")
	})
}

// Connections implements i.ServerSocketManager.
func (s *ServerSocketManager) Connections() []i.ConnectionInfo {
	return s.registry.Snapshot()
}

// BroadcastToClients implements i.ServerSocketManager.
func (s *ServerSocketManager) BroadcastToClients(line string) {
	s.registry.Broadcast(line)
}

// GetAddr implements i.ServerSocketManager.
func (s *ServerSocketManager) GetAddr() string {
	return s.listener.Addr().String()
}

// Registry returns the live connection registry.
func (s *ServerSocketManager) Registry() *Registry {
	return s.registry
}

// handleConnection runs the read loop of one connection. Teardown always closes the
// socket and deregisters it, whichever way the loop ends.
func (s *ServerSocketManager) handleConnection(conn net.Conn) {
	c := NewConnection(conn)
	s.registry.Register(c)
	addr := c.RemoteAddr()
	s.logger.Info(fmt.Sprintf("%s/OPENED CONNECTION", addr))

	defer func() {
		_ = c.Close()
		s.registry.Deregister(c.ID)
		s.logger.Info(fmt.Sprintf("%s/CLOSED CONNECTION", addr))
	}()

	// Stop may have swept the registry before this connection was added.
	select {
	case <-s.stop:
		return
	default:
	}

	scanner := newLineScanner(conn, s.maxLine)
	for {
		line, err := readLine(scanner)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Error(fmt.Sprintf("error while reading from %s: %s", addr, err))
			}
			return
		}
		s.logger.Info(fmt.Sprintf("%s -> Server : %s", addr, line))

		response := s.handler.Handle(line)
		if err := c.WriteLine(response); err != nil {
			s.logger.Error(fmt.Sprintf("error while writing to %s: %s", addr, err))
			return
		}
		s.logger.Info(fmt.Sprintf("SERVER -> %s : %s", addr, response))

		if IsQuit(line) {
			return
		}
	}
}

// IsQuit reports whether line ends the session.
func IsQuit(line string) bool {
	return strings.TrimSpace(line) == QuitLine
}

// newLineScanner splits r into lines of at most maxLine bytes. Longer lines fail with
// bufio.ErrTooLong.
func newLineScanner(r io.Reader, maxLine int) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(maxLine, 4<<10)), maxLine)
	return scanner
}

// readLine reads one line without its "\n" or "\r\n" terminator. A final line without a
// terminator is returned as a normal line; io.EOF follows on the next call.
func readLine(s *bufio.Scanner) (string, error) {
	if s.Scan() {
		return s.Text(), nil
	}
	if err := s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// ServerWithLogger sets the logger.
func ServerWithLogger(l i.Logger) ServerOption {
	return func(s *ServerSocketManager) {
		s.logger = l
	}
}

// ServerWithMaxLineLength caps the length of a request line. A longer line ends the
// connection.
func ServerWithMaxLineLength(n int) ServerOption {
	return func(s *ServerSocketManager) {
		if n > 0 {
			s.maxLine = n
		}
	}
}

// ServerWithRegistry sets the registry connections are recorded in.
func ServerWithRegistry(r *Registry) ServerOption {
	return func(s *ServerSocketManager) {
		s.registry = r
	}
}
