package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"robotask/app/handler"
	approuter "robotask/app/router"
	"robotask/internal/model"
	"robotask/internal/registry"
	"robotask/internal/service"
	"robotask/internal/store"
	"robotask/internal/stream"
	"robotask/internal/worker"
	"robotask/pkg/config"
	"robotask/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "robotask"
	serviceVersion = "1.2.0"
)

// initConfig loads configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes the global logger
func (app *Application) initLogger() error {
	return logger.Init()
}

// initRegistry creates the task type registry and registers the built-in
// diagnostic types. Robot task handlers (:plan, :move, ...) are registered
// by the integration that embeds this server.
func (app *Application) initRegistry() error {
	app.registry = registry.New()

	// echo returns its payload unchanged; used by clients as a liveness
	// probe through the whole dispatch path.
	app.registry.Register("echo", func(ctx context.Context, task *model.Task) (any, error) {
		return task.Payload, nil
	}, model.AffinityParallel)

	return nil
}

// Registry exposes the task type registry so embedding integrations can
// register their handlers before Start.
func (app *Application) Registry() *registry.Registry {
	return app.registry
}

// initStore creates the task/event store and wires the event broadcaster
func (app *Application) initStore() error {
	app.taskStore = store.New()
	app.broadcaster = stream.NewBroadcaster()
	app.taskStore.SetEventHook(app.broadcaster.Publish)
	return nil
}

// initEngine creates the dispatch router and worker pools
func (app *Application) initEngine() error {
	app.engine = worker.NewEngine(app.ctx, app.config.Engine, app.taskStore, app.registry)
	return nil
}

// initServices initializes the service layer
func (app *Application) initServices() error {
	app.taskService = service.NewTaskService(app.taskStore, app.registry, app.engine)
	return nil
}

// initHandlers initializes the handler layer
func (app *Application) initHandlers() error {
	app.taskHandler = handler.NewTaskHandler(app.taskService)
	app.eventHandler = handler.NewEventHandler(app.taskService, app.broadcaster)
	app.systemHandler = handler.NewSystemHandler(app.taskService, serviceName, serviceVersion)
	return nil
}

// initHTTPServer initializes the HTTP server
func (app *Application) initHTTPServer() error {
	if app.config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	app.ginEngine = gin.New()

	r := approuter.NewRouter(app.taskHandler, app.eventHandler, app.systemHandler)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:      app.ginEngine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming endpoint stays open
	}
	return nil
}
