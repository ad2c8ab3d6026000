package handler

import (
	"net/http"
	"strconv"

	"robotask/internal/service"
	"robotask/internal/stream"
	"robotask/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// EventHandler exposes the append-only event log.
type EventHandler struct {
	taskService *service.TaskService
	broadcaster *stream.Broadcaster
	upgrader    websocket.Upgrader
}

// NewEventHandler creates event handler
func NewEventHandler(taskService *service.TaskService, broadcaster *stream.Broadcaster) *EventHandler {
	return &EventHandler{
		taskService: taskService,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The operator UI is served from another origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// List gets the full event log
// @Summary List events
// @Description Full event log in ID order, optionally filtered by task
// @Tags events
// @Produce json
// @Param task query int false "Task ID"
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	if taskParam := c.Query("task"); taskParam != "" {
		taskID, err := strconv.ParseInt(taskParam, 10, 64)
		if err != nil || taskID < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task"})
			return
		}
		events := h.taskService.TaskEvents(taskID)
		c.JSON(http.StatusOK, gin.H{"events": events, "total": len(events)})
		return
	}

	events := h.taskService.ListEvents()
	c.JSON(http.StatusOK, gin.H{"events": events, "total": len(events)})
}

// Get gets one event
// @Summary Get event
// @Description Get an event by ID
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	event, found := h.taskService.GetEvent(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// Stream pushes events over a websocket as they are appended
// @Summary Stream events
// @Description Live event feed; each appended event is sent as one JSON message
// @Tags events
// @Router /stream [get]
func (h *EventHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub := h.broadcaster.Subscribe(64)
	defer h.broadcaster.Unsubscribe(sub)

	// Reader goroutine: only there to observe the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.DebugCtx(c.Request.Context(), "event stream write failed: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
