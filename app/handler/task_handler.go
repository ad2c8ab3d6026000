package handler

import (
	"errors"
	"net/http"
	"strconv"

	"robotask/internal/registry"
	"robotask/internal/service"
	"robotask/internal/store"
	"robotask/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TaskHandler handles task operations
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler creates task handler
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// Submit creates a task
// @Summary Submit a task
// @Description Create a task of a registered type; payload fields beyond "type" are passed through to the handler
// @Tags tasks
// @Accept json
// @Produce json
// @Success 200 {object} model.Task
// @Router /tasks [put]
func (h *TaskHandler) Submit(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.ErrorCtx(c.Request.Context(), "invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	taskType, ok := body["type"].(string)
	if taskType == "" || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type required"})
		return
	}
	delete(body, "type")

	task, err := h.taskService.SubmitTask(c.Request.Context(), taskType, body)
	if err != nil {
		if errors.Is(err, registry.ErrUnknownTaskType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.ErrorCtx(c.Request.Context(), "failed to submit task: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, task)
}

// Get gets one task
// @Summary Get task
// @Description Get a task by ID
// @Tags tasks
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} model.Task
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	task, found := h.taskService.GetTask(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	c.JSON(http.StatusOK, task)
}

// List gets the task list
// @Summary List tasks
// @Description List tasks with optional state filter and created-time sort
// @Tags tasks
// @Produce json
// @Param state query string false "Task state (new, processing, complete, failed, cancelled)"
// @Param sort query string false "Sort order (created)"
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	state := c.Query("state")
	sortByCreated := c.Query("sort") == "created"

	tasks := h.taskService.ListTasks(state, sortByCreated)

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// Cancel cancels a task
// @Summary Cancel task
// @Description Cancel a task that has not finished
// @Tags tasks
// @Param id path int true "Task ID"
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.taskService.CancelTask(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, store.ErrTaskFinished):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.ErrorCtx(c.Request.Context(), "failed to cancel task %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task cancelled"})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
