package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the acting user on mutating requests
const UserIDHeader = "X-User-Id"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	Deps
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{Deps: deps, logger: deps.Logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse is one page of a list result
type PageResponse[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// pageRequest holds the paging query parameters
type pageRequest struct {
	Page int `form:"page"`
	Size int `form:"size"`
}

func (r *pageRequest) normalize() {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = defaultPageSize
	}
	if r.Size > maxPageSize {
		r.Size = maxPageSize
	}
}

// paginate slices items into the requested page
func paginate[T any](items []T, req pageRequest) PageResponse[T] {
	req.normalize()

	total := len(items)
	totalPages := (total + req.Size - 1) / req.Size

	start := req.Page * req.Size
	if start > total {
		start = total
	}
	end := start + req.Size
	if end > total {
		end = total
	}

	content := make([]T, end-start)
	copy(content, items[start:end])

	return PageResponse[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: int64(total),
		TotalPages:    totalPages,
		First:         req.Page == 0,
		Last:          req.Page >= totalPages-1,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if h.Health != nil {
		healthy, details := h.Health()
		resp.Components = details
		if !healthy {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{Success: status == http.StatusOK, Data: resp})
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// pathID parses a positive int64 path parameter, answering 400 on failure
func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name+": "+raw)
		return 0, false
	}
	return id, true
}

// headerUserID reads X-User-Id. A missing header yields nil.
func headerUserID(c *gin.Context) (*int64, bool) {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+UserIDHeader+" header: "+raw)
		return nil, false
	}
	return &id, true
}

func bindPage(c *gin.Context) (pageRequest, bool) {
	var req pageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid paging parameters")
		return req, false
	}
	return req, true
}
