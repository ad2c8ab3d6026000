package router

import (
	"robotask/app/handler"
	"robotask/app/middleware"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	taskHandler   *handler.TaskHandler
	eventHandler  *handler.EventHandler
	systemHandler *handler.SystemHandler
}

// NewRouter creates a new Router
func NewRouter(taskHandler *handler.TaskHandler, eventHandler *handler.EventHandler, systemHandler *handler.SystemHandler) *Router {
	return &Router{
		taskHandler:   taskHandler,
		eventHandler:  eventHandler,
		systemHandler: systemHandler,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())

	// Task lifecycle
	tasks := engine.Group("/tasks")
	{
		tasks.PUT("", r.taskHandler.Submit)
		tasks.GET("", r.taskHandler.List)
		tasks.GET("/:id", r.taskHandler.Get)
		tasks.DELETE("/:id", r.taskHandler.Cancel)
	}

	// Event log
	events := engine.Group("/events")
	{
		events.GET("", r.eventHandler.List)
		events.GET("/:id", r.eventHandler.Get)
	}

	// Live event feed (websocket); mounted outside /events because a static
	// segment cannot share a level with the :id wildcard.
	engine.GET("/stream", r.eventHandler.Stream)

	// Execution control
	execution := engine.Group("/execution")
	{
		execution.POST("/pause", r.systemHandler.Pause)
		execution.POST("/resume", r.systemHandler.Resume)
	}

	// System status
	engine.GET("/status", r.systemHandler.Status)
	engine.GET("/meta", r.systemHandler.Meta)

	// Health check
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
