package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ukoquique-proves/JavaFlow/internal/application/usecase"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
)

// CreateWorkflowRequest is the body of POST /api/v1/workflows
type CreateWorkflowRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Definition  string `json:"definition"`
}

// ExecuteWorkflowRequest is the body of POST /api/v1/workflows/:id/execute
type ExecuteWorkflowRequest struct {
	Variables       map[string]interface{} `json:"variables"`
	StartedByUserID *int64                 `json:"started_by_user_id,omitempty"`
}

// ListWorkflowsRequest filters GET /api/v1/workflows
type ListWorkflowsRequest struct {
	pageRequest
	Status    string `form:"status"`
	CreatedBy int64  `form:"created_by"`
	// View selects the projection: "executions" or "creator"
	View string `form:"view"`
}

// CreateWorkflow handles POST /api/v1/workflows
func (h *Handlers) CreateWorkflow(c *gin.Context) {
	var req CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	userID, valid := headerUserID(c)
	if !valid {
		return
	}

	cmd := usecase.CreateWorkflowCommand{
		Name:        req.Name,
		Description: req.Description,
		Definition:  req.Definition,
	}
	if userID != nil {
		cmd.CreatorID = *userID
	}

	h.logger.Info("Creating workflow", "name", req.Name)
	res, err := h.Workflows.CreateWorkflow(c.Request.Context(), cmd)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

// ListWorkflows handles GET /api/v1/workflows
func (h *Handlers) ListWorkflows(c *gin.Context) {
	var req ListWorkflowsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	ctx := c.Request.Context()
	var (
		list []*usecase.WorkflowResult
		err  error
	)
	switch {
	case req.Status != "":
		list, err = h.Workflows.ListWorkflowsByStatus(ctx, entity.WorkflowStatus(strings.ToUpper(req.Status)))
	case req.CreatedBy > 0:
		list, err = h.Workflows.ListWorkflowsByUser(ctx, req.CreatedBy)
	case req.View == "executions":
		list, err = h.Workflows.ListWorkflowsWithExecutions(ctx)
	case req.View == "creator":
		list, err = h.Workflows.ListWorkflowsWithCreator(ctx)
	default:
		list, err = h.Workflows.ListWorkflows(ctx)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, paginate(list, req.pageRequest))
}

// GetWorkflow handles GET /api/v1/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	res, err := h.Workflows.GetWorkflow(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// ActivateWorkflow handles POST /api/v1/workflows/:id/activate
func (h *Handlers) ActivateWorkflow(c *gin.Context) {
	h.workflowTransition(c, "Activating workflow", h.Workflows.ActivateWorkflow)
}

// DeactivateWorkflow handles POST /api/v1/workflows/:id/deactivate
func (h *Handlers) DeactivateWorkflow(c *gin.Context) {
	h.workflowTransition(c, "Deactivating workflow", h.Workflows.DeactivateWorkflow)
}

// ArchiveWorkflow handles POST /api/v1/workflows/:id/archive
func (h *Handlers) ArchiveWorkflow(c *gin.Context) {
	h.workflowTransition(c, "Archiving workflow", h.Workflows.ArchiveWorkflow)
}

func (h *Handlers) workflowTransition(c *gin.Context, msg string, fn func(ctx context.Context, id int64) (*usecase.WorkflowResult, error)) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	h.logger.Info(msg, "workflow_id", id)

	res, err := fn(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// DeleteWorkflow handles DELETE /api/v1/workflows/:id
func (h *Handlers) DeleteWorkflow(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	h.logger.Info("Deleting workflow", "workflow_id", id)

	if err := h.Workflows.DeleteWorkflow(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExecuteWorkflow handles POST /api/v1/workflows/:id/execute.
// X-User-Id takes precedence over started_by_user_id; neither means a system run.
func (h *Handlers) ExecuteWorkflow(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	var req ExecuteWorkflowRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}
	userID, valid := headerUserID(c)
	if !valid {
		return
	}
	if userID == nil {
		userID = req.StartedByUserID
	}

	h.logger.Info("Executing workflow", "workflow_id", id)
	res, err := h.Workflows.ExecuteWorkflow(c.Request.Context(), usecase.ExecuteWorkflowCommand{
		WorkflowID:  id,
		Variables:   req.Variables,
		InitiatorID: userID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

// ListWorkflowExecutions handles GET /api/v1/workflows/:id/executions
func (h *Handlers) ListWorkflowExecutions(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	page, valid := bindPage(c)
	if !valid {
		return
	}

	// a missing workflow is a 404, not an empty page
	if _, err := h.Workflows.GetWorkflow(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	list, err := h.Workflows.ListExecutionsByWorkflow(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, paginate(list, page))
}

// ListUserWorkflows handles GET /api/v1/users/:id/workflows
func (h *Handlers) ListUserWorkflows(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	page, valid := bindPage(c)
	if !valid {
		return
	}

	list, err := h.Workflows.ListWorkflowsByUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, paginate(list, page))
}
