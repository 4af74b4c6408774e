package tcp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/google/uuid"
)

const (
	defaultMirrorKey     = "labyrinth:connections"
	defaultMirrorTimeout = 2 * time.Second
)

// Connection is one accepted client socket.
type Connection struct {
	ID          uuid.UUID // Registry key.
	conn        net.Conn
	writer      *bufio.Writer
	connectedAt time.Time
	closeOnce   sync.Once
	closeErr    error

	sync.Mutex // Serialises writes; responses and broadcasts share the socket.
}

// NewConnection wraps an accepted socket.
func NewConnection(conn net.Conn) *Connection {
	return &Connection{
		ID:          uuid.New(),
		conn:        conn,
		writer:      bufio.NewWriter(conn),
		connectedAt: time.Now(),
	}
}

// WriteLine writes line followed by the line terminator.
func (c *Connection) WriteLine(line string) error {
	c.Lock()
	defer c.Unlock()

	if _, err := c.writer.WriteString(line + "\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

// Close closes the socket once; later calls return the first result.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the peer address.
func (c *Connection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Info describes the connection.
func (c *Connection) Info() i.ConnectionInfo {
	return i.ConnectionInfo{
		ID:          c.ID,
		RemoteAddr:  c.RemoteAddr(),
		ConnectedAt: c.connectedAt,
	}
}

type RegistryOption func(*Registry)

// Registry is the process-wide set of live connections. It is safe for concurrent use.
type Registry struct {
	connections map[uuid.UUID]*Connection // Live connections indexed by ID.
	mirror      i.SortedSet               // Optional shared index of the live connections.
	mirrorKey   string                    // Key of this process in the mirror.
	logger      i.Logger
	sync.RWMutex
}

func NewRegistry(options ...RegistryOption) *Registry {
	r := &Registry{
		connections: make(map[uuid.UUID]*Connection),
		mirrorKey:   defaultMirrorKey,
	}
	for _, opt := range options {
		opt(r)
	}

	if r.logger == nil {
		r.logger = discardLogger{}
	}
	return r
}

// Register adds c to the registry.
func (r *Registry) Register(c *Connection) {
	r.Lock()
	r.connections[c.ID] = c
	r.Unlock()

	if r.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), defaultMirrorTimeout)
		defer cancel()
		if err := r.mirror.Add(ctx, r.mirrorKey, float64(c.connectedAt.UnixNano()), c.ID.String()); err != nil {
			r.logger.Error(fmt.Sprintf("mirroring connection %s: %s", c.ID, err))
		}
	}
}

// Deregister removes the connection with the given ID. It reports whether the
// connection was registered.
func (r *Registry) Deregister(id uuid.UUID) bool {
	r.Lock()
	_, found := r.connections[id]
	delete(r.connections, id)
	r.Unlock()

	if found && r.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), defaultMirrorTimeout)
		defer cancel()
		if err := r.mirror.Remove(ctx, r.mirrorKey, id.String()); err != nil {
			r.logger.Error(fmt.Sprintf("removing mirrored connection %s: %s", id, err))
		}
	}
	return found
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.connections)
}

// Snapshot returns the live connections ordered by connection time.
func (r *Registry) Snapshot() []i.ConnectionInfo {
	r.RLock()
	infos := make([]i.ConnectionInfo, 0, len(r.connections))
	for _, c := range r.connections {
		infos = append(infos, c.Info())
	}
	r.RUnlock()

	slices.SortFunc(infos, func(a, b i.ConnectionInfo) int {
		return a.ConnectedAt.Compare(b.ConnectedAt)
	})
	return infos
}

// Broadcast writes line to every live connection.
func (r *Registry) Broadcast(line string) {
	for _, c := range r.live() {
		if err := c.WriteLine(line); err != nil {
			r.logger.Error(fmt.Sprintf("broadcasting to %s: %s", c.RemoteAddr(), err))
		}
	}
}

// CloseAll closes every live socket. Connections deregister themselves on teardown.
func (r *Registry) CloseAll() {
	for _, c := range r.live() {
		_ = c.Close()
	}
}

func (r *Registry) live() []*Connection {
	r.RLock()
	defer r.RUnlock()
	conns := make([]*Connection, 0, len(r.connections))
	for _, c := range r.connections {
		conns = append(conns, c)
	}
	return conns
}

// RegistryWithMirror keeps a copy of the live connection IDs in a shared sorted set
// under key.
func RegistryWithMirror(s i.SortedSet, key string) RegistryOption {
	return func(r *Registry) {
		r.mirror = s
		if key != "" {
			r.mirrorKey = key
		}
	}
}

// RegistryWithLogger sets the logger.
func RegistryWithLogger(l i.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

type discardLogger struct{}

func (discardLogger) Info(string)  {}
func (discardLogger) Error(string) {}
