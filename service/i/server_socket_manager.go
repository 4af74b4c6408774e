package i

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionInfo describes one live client connection.
type ConnectionInfo struct {
	ID          uuid.UUID `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
}

// ServerSocketManager manages server-side socket communication and client connections.
type ServerSocketManager interface {
	// Serve accepts connections until Stop is called.
	Serve() error
	Stop()

	// Connections returns a snapshot of the live connections.
	Connections() []ConnectionInfo

	// BroadcastToClients writes one line to every live connection.
	BroadcastToClients(line string)

	// GetAddr returns the server's socket address.
	GetAddr() string
}

// CommandHandler turns one request line into one response line.
type CommandHandler interface {
	Handle(line string) string
}
