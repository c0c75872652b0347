package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moogar0880/problems"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
)

const problemContentType = "application/problem+json"

// Problem is an RFC 7807 document extended with the error code and field errors
type Problem struct {
	*problems.Problem
	Code   string            `json:"code,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func writeProblem(c *gin.Context, p *Problem) {
	c.Header("Content-Type", problemContentType)
	c.JSON(p.Problem.Status, p)
}

func newProblem(c *gin.Context, status int, problemType, detail string) *Problem {
	return &Problem{
		Problem: problems.NewStatusProblem(status).
			WithInstance(c.Request.URL.Path).
			WithType(problemType).
			WithDetail(detail),
	}
}

func internalProblem(c *gin.Context) *Problem {
	return newProblem(c, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}

func badRequest(c *gin.Context, detail string) {
	writeProblem(c, newProblem(c, http.StatusBadRequest, "validation_error", detail))
}

// writeError maps the error taxonomy onto problem documents.
// Unclassified errors are logged in full and answered opaquely.
func (h *Handlers) writeError(c *gin.Context, err error) {
	var e *errs.Error
	if !errors.As(err, &e) {
		h.logger.Error("Unhandled error", "path", c.Request.URL.Path, "error", err)
		writeProblem(c, internalProblem(c))
		return
	}

	var p *Problem
	switch e.Kind {
	case errs.KindNotFound:
		p = newProblem(c, http.StatusNotFound, "not_found", e.Message)
	case errs.KindDomainRule:
		p = newProblem(c, http.StatusBadRequest, "domain_rule_violation", e.Message)
	case errs.KindValidation:
		p = newProblem(c, http.StatusBadRequest, "validation_error", e.Message)
		p.Errors = e.Fields
	case errs.KindConflict:
		p = newProblem(c, http.StatusConflict, "conflict", e.Message)
	case errs.KindEngine:
		h.logger.Error("Process engine failure", "path", c.Request.URL.Path, "code", e.Code, "error", err)
		p = newProblem(c, http.StatusInternalServerError, "engine_error", e.Message)
	case errs.KindSecurity:
		h.logger.Error("Security failure", "path", c.Request.URL.Path, "code", e.Code)
		p = newProblem(c, http.StatusInternalServerError, "security_error", "A security error occurred")
	default:
		h.logger.Error("Unhandled error", "path", c.Request.URL.Path, "error", err)
		writeProblem(c, internalProblem(c))
		return
	}

	p.Code = e.Code
	writeProblem(c, p)
}
