package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/application/usecase"
)

const defaultRecentHours = 24

// EngineEventRequest is a lifecycle callback from the process engine
type EngineEventRequest struct {
	ProcessInstanceID string `json:"process_instance_id" binding:"required"`
	Event             string `json:"event" binding:"required"`
	ErrorMessage      string `json:"error_message"`
}

// ListRecentExecutions handles GET /api/v1/executions?hours=N
func (h *Handlers) ListRecentExecutions(c *gin.Context) {
	var req struct {
		pageRequest
		Hours int `form:"hours"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}
	if _, set := c.GetQuery("hours"); !set {
		req.Hours = defaultRecentHours
	}

	list, err := h.Workflows.ListRecentExecutions(c.Request.Context(), req.Hours)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, paginate(list, req.pageRequest))
}

// ExecutionStats handles GET /api/v1/executions/stats
func (h *Handlers) ExecutionStats(c *gin.Context) {
	counts, err := h.Workflows.CountExecutionsByStatus(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, counts)
}

// GetExecution handles GET /api/v1/executions/:id
func (h *Handlers) GetExecution(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	res, err := h.Workflows.GetExecution(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GetExecutionByInstance handles GET /api/v1/executions/by-instance/:instanceId
func (h *Handlers) GetExecutionByInstance(c *gin.Context) {
	res, err := h.Workflows.GetExecutionByProcessInstanceID(c.Request.Context(), c.Param("instanceId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// CancelExecution handles POST /api/v1/executions/:id/cancel
func (h *Handlers) CancelExecution(c *gin.Context) {
	h.executionTransition(c, "Cancelling execution", h.Workflows.CancelExecution)
}

// SuspendExecution handles POST /api/v1/executions/:id/suspend
func (h *Handlers) SuspendExecution(c *gin.Context) {
	h.executionTransition(c, "Suspending execution", h.Workflows.SuspendExecution)
}

// ResumeExecution handles POST /api/v1/executions/:id/resume
func (h *Handlers) ResumeExecution(c *gin.Context) {
	h.executionTransition(c, "Resuming execution", h.Workflows.ResumeExecution)
}

func (h *Handlers) executionTransition(c *gin.Context, msg string, fn func(ctx context.Context, id int64) (*usecase.WorkflowExecutionResult, error)) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	h.logger.Info(msg, "execution_id", id)

	res, err := fn(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// EngineEvent handles POST /api/v1/engine/events.
// start maps to RUNNING, end to COMPLETED and error to FAILED.
func (h *Handlers) EngineEvent(c *gin.Context) {
	var req EngineEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "process_instance_id and event are required")
		return
	}

	status, known := port.LifecycleEvent(req.Event).ExecutionStatus()
	if !known {
		badRequest(c, "Unknown lifecycle event: "+req.Event)
		return
	}

	res, err := h.Workflows.UpdateExecutionStatus(c.Request.Context(), req.ProcessInstanceID, status, req.ErrorMessage)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
