// Package labyrinthapi provides the HTTP view of the labyrinth server.
package labyrinthapi

import (
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
)

// LabyrinthRequest carries the interior size of the requested labyrinth.
type LabyrinthRequest struct {
	Width  int `form:"width" binding:"required"`
	Height int `form:"height" binding:"required"`
}

// LabyrinthResponse holds the encoded wall sequence, as sent over the socket.
type LabyrinthResponse struct {
	Labyrinth string `json:"labyrinth"`
}

// ConnectionsResponse lists the live socket connections.
type ConnectionsResponse struct {
	Count        int                `json:"count"`
	ClusterCount *int64             `json:"cluster_count,omitempty"` // Across every instance.
	Connections  []i.ConnectionInfo `json:"connections"`
}

// BroadcastRequest is a line to write to every live connection.
type BroadcastRequest struct {
	Message string `json:"message" binding:"required"`
}
