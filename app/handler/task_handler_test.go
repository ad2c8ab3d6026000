package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"robotask/internal/model"
	"robotask/internal/registry"
	"robotask/internal/service"
	"robotask/internal/store"
	"robotask/internal/stream"
	"robotask/internal/worker"
	"robotask/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.New()
	broadcaster := stream.NewBroadcaster()
	s.SetEventHook(broadcaster.Publish)

	reg := registry.New()
	reg.Register("echo", func(ctx context.Context, task *model.Task) (any, error) {
		return task.Payload, nil
	}, model.AffinityParallel)

	eng := worker.NewEngine(context.Background(), config.DefaultEngineConfig(), s, reg)
	eng.Start()
	t.Cleanup(eng.Stop)

	svc := service.NewTaskService(s, reg, eng)

	engine := gin.New()
	taskHandler := NewTaskHandler(svc)
	eventHandler := NewEventHandler(svc, broadcaster)
	systemHandler := NewSystemHandler(svc, "robotask", "test")

	tasks := engine.Group("/tasks")
	tasks.PUT("", taskHandler.Submit)
	tasks.GET("", taskHandler.List)
	tasks.GET("/:id", taskHandler.Get)
	tasks.DELETE("/:id", taskHandler.Cancel)

	events := engine.Group("/events")
	events.GET("", eventHandler.List)
	events.GET("/:id", eventHandler.Get)

	engine.GET("/status", systemHandler.Status)
	engine.GET("/meta", systemHandler.Meta)
	engine.POST("/execution/pause", systemHandler.Pause)
	engine.POST("/execution/resume", systemHandler.Resume)

	return engine, s
}

func doRequest(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSubmitTaskHTTP(t *testing.T) {
	engine, s := newTestServer(t)

	w := doRequest(engine, http.MethodPut, "/tasks", `{"type":"echo","x":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	var task map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, float64(1), task["id"])
	assert.Equal(t, "echo", task["type"])
	assert.Equal(t, float64(1), task["x"], "payload fields flatten onto the wire shape")

	require.Eventually(t, func() bool {
		stored, ok := s.GetTask(1)
		return ok && stored.State == model.TaskStateComplete
	}, 3*time.Second, 5*time.Millisecond)
}

func TestSubmitUnknownTypeHTTP(t *testing.T) {
	engine, s := newTestServer(t)

	w := doRequest(engine, http.MethodPut, "/tasks", `{"type":"ghost"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, s.GetTasks(), "rejected submit must not create a task")
}

func TestSubmitMissingTypeHTTP(t *testing.T) {
	engine, _ := newTestServer(t)

	w := doRequest(engine, http.MethodPut, "/tasks", `{"x":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTaskNotFoundHTTP(t *testing.T) {
	engine, _ := newTestServer(t)

	w := doRequest(engine, http.MethodGet, "/tasks/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(engine, http.MethodGet, "/tasks/notanumber", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTasksHTTP(t *testing.T) {
	engine, s := newTestServer(t)

	_, err := s.AddTask("echo", nil, model.AffinityParallel)
	require.NoError(t, err)
	_, err = s.AddTask("echo", nil, model.AffinityParallel)
	require.NoError(t, err)

	w := doRequest(engine, http.MethodGet, "/tasks?state=new&sort=created", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tasks []map[string]any `json:"tasks"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
}

func TestCancelTaskHTTP(t *testing.T) {
	engine, s := newTestServer(t)

	task, err := s.AddTask("echo", nil, model.AffinityParallel)
	require.NoError(t, err)

	w := doRequest(engine, http.MethodDelete, "/tasks/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	stored, _ := s.GetTask(task.ID)
	assert.Equal(t, model.TaskStateCancelled, stored.State)

	// Cancelling a finished task conflicts.
	w = doRequest(engine, http.MethodDelete, "/tasks/1", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(engine, http.MethodDelete, "/tasks/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventEndpointsHTTP(t *testing.T) {
	engine, s := newTestServer(t)

	task, err := s.AddTask("echo", map[string]any{"k": "v"}, model.AffinityParallel)
	require.NoError(t, err)

	w := doRequest(engine, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Events []map[string]any `json:"events"`
		Total  int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, float64(task.ID), resp.Events[0]["task"])

	w = doRequest(engine, http.MethodGet, "/events/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodGet, "/events/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(engine, http.MethodGet, "/events?task=1", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusAndMetaHTTP(t *testing.T) {
	engine, _ := newTestServer(t)

	w := doRequest(engine, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "running", status["execution"])

	w = doRequest(engine, http.MethodPost, "/execution/pause", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodGet, "/status", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "paused", status["execution"])

	w = doRequest(engine, http.MethodPost, "/execution/resume", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodGet, "/meta", "")
	require.Equal(t, http.StatusOK, w.Code)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, "robotask", meta["name"])
}
