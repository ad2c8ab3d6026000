package handler

import (
	"net/http"

	"robotask/internal/model"
	"robotask/internal/service"

	"github.com/gin-gonic/gin"
)

// SystemHandler exposes execution control and read-only system status.
type SystemHandler struct {
	taskService *service.TaskService
	meta        model.MetaResponse
}

// NewSystemHandler creates system handler
func NewSystemHandler(taskService *service.TaskService, name, version string) *SystemHandler {
	return &SystemHandler{
		taskService: taskService,
		meta: model.MetaResponse{
			Name:    name,
			Version: version,
		},
	}
}

// Status reports execution state and task counts
// @Summary System status
// @Tags system
// @Produce json
// @Success 200 {object} model.StatusResponse
// @Router /status [get]
func (h *SystemHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.taskService.Status())
}

// Meta reports static service metadata
// @Summary Service metadata
// @Tags system
// @Produce json
// @Success 200 {object} model.MetaResponse
// @Router /meta [get]
func (h *SystemHandler) Meta(c *gin.Context) {
	c.JSON(http.StatusOK, h.meta)
}

// Pause pauses task execution
// @Summary Pause task execution
// @Description Pausable pools stop starting new handler invocations; high-priority tasks keep running
// @Tags system
// @Router /execution/pause [post]
func (h *SystemHandler) Pause(c *gin.Context) {
	h.taskService.Pause(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"execution": "paused"})
}

// Resume resumes task execution
// @Summary Resume task execution
// @Tags system
// @Router /execution/resume [post]
func (h *SystemHandler) Resume(c *gin.Context) {
	h.taskService.Resume(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"execution": "running"})
}
