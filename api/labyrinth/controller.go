package labyrinthapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/maze"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/gin-gonic/gin"
)

// Controller exposes labyrinth generation and the socket server's connections over HTTP.
type Controller struct {
	labyrinths i.LabyrinthProvider
	socket     i.ServerSocketManager
	cluster    i.ConnectionCounter // Optional; nil when no shared index is configured.
}

// NewController initializes a Controller. cc may be nil.
func NewController(lp i.LabyrinthProvider, ssm i.ServerSocketManager, cc i.ConnectionCounter) *Controller {
	return &Controller{
		labyrinths: lp,
		socket:     ssm,
		cluster:    cc,
	}
}

// RegisterPublic registers public routes.
func (c *Controller) RegisterPublic(route *gin.RouterGroup) {
	route.GET("/labyrinth", c.labyrinth)

	connections := route.Group("/connections")
	{
		connections.GET("", c.connections)
		connections.POST("/broadcast", c.broadcast)
	}
}

// labyrinth generates one labyrinth and returns it encoded.
func (c *Controller) labyrinth(ctx *gin.Context) {
	var request LabyrinthRequest
	if err := ctx.ShouldBindQuery(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	encoded, err := c.labyrinths.Labyrinth(request.Width, request.Height)
	if errors.Is(err, maze.ErrInvalidDimension) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while generating labyrinth"})
		return
	}

	ctx.JSON(http.StatusOK, &LabyrinthResponse{Labyrinth: encoded})
}

// connections lists the live socket connections of this instance, plus the total over
// every instance when a shared index is configured.
func (c *Controller) connections(ctx *gin.Context) {
	conns := c.socket.Connections()
	response := &ConnectionsResponse{
		Count:       len(conns),
		Connections: conns,
	}

	if c.cluster != nil {
		timeoutCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		total, err := c.cluster.Total(timeoutCtx)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while counting connections"})
			return
		}
		response.ClusterCount = &total
	}

	ctx.JSON(http.StatusOK, response)
}

// broadcast writes a line to every live socket connection.
func (c *Controller) broadcast(ctx *gin.Context) {
	var request BroadcastRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.ContainsAny(request.Message, "\r\n") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "message must be a single line"})
		return
	}

	c.socket.BroadcastToClients(request.Message)
	ctx.Status(http.StatusAccepted)
}
