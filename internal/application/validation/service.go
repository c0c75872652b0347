// Package validation checks process definitions and workflow business rules.
// All checks are pure: they never touch storage or the process engine.
package validation

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
)

var (
	definitionsPattern  = regexp.MustCompile(`(?is)<(bpmn:|bpmn2:|)definitions`)
	processPattern      = regexp.MustCompile(`(?is)<(bpmn:|bpmn2:|)process[\s>/]`)
	workflowNameCharset = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)
)

// Service validates workflow definitions, business rules and deletions
type Service interface {
	ValidateDefinition(definition string) Result
	ValidateBusinessRules(w *entity.Workflow) Result
	ValidateDeletion(w *entity.Workflow) Result
}

type service struct{}

// NewService creates a new validation service
func NewService() Service {
	return &service{}
}

// ValidateDefinition checks the structural shape of a BPMN document
func (s *service) ValidateDefinition(definition string) Result {
	var errs, warnings []string

	if strings.TrimSpace(definition) == "" {
		return newResult([]string{"BPMN XML is required"}, nil)
	}

	if !isWellFormedXML(definition) {
		errs = append(errs, "Invalid XML structure")
	}
	if !definitionsPattern.MatchString(definition) {
		errs = append(errs, "Missing BPMN namespace or definitions element")
	}
	if !processPattern.MatchString(definition) {
		errs = append(errs, "No process definition found")
	}

	lower := strings.ToLower(definition)
	if !strings.Contains(lower, "startevent") && !strings.Contains(lower, "start-event") {
		warnings = append(warnings, "No start event found in process")
	}
	if !strings.Contains(lower, "endevent") && !strings.Contains(lower, "end-event") {
		warnings = append(warnings, "No end event found in process")
	}

	return newResult(errs, warnings)
}

// ValidateBusinessRules checks naming, description, version and status rules
func (s *service) ValidateBusinessRules(w *entity.Workflow) Result {
	var errs, warnings []string

	name := strings.TrimSpace(w.Name)
	switch {
	case name == "":
		errs = append(errs, "Workflow name is required")
	case !w.HasValidName() || !workflowNameCharset.MatchString(name):
		errs = append(errs, fmt.Sprintf(
			"Workflow name must be between %d and %d characters and contain only letters, numbers, spaces, hyphens and underscores",
			entity.MinWorkflowNameLength, entity.MaxWorkflowNameLength))
	}

	if strings.Contains(strings.ToLower(name), "test") {
		warnings = append(warnings, "Workflow name contains 'test' - consider using a more descriptive name for production")
	}

	if utf8.RuneCountInString(w.Description) > entity.MaxDescriptionLength {
		errs = append(errs, fmt.Sprintf("Workflow description must not exceed %d characters", entity.MaxDescriptionLength))
	}

	if w.Version < 1 {
		errs = append(errs, "Workflow version must be greater than 0")
	}

	if !w.Status.IsValid() {
		errs = append(errs, "Workflow status is required")
	}

	return newResult(errs, warnings)
}

// ValidateDeletion checks whether a workflow can be removed together with its history
func (s *service) ValidateDeletion(w *entity.Workflow) Result {
	var errs, warnings []string

	if w.Status == entity.WorkflowStatusActive {
		errs = append(errs, "Cannot delete active workflow. Deactivate it first.")
	}

	if active := w.ActiveExecutionCount(); active > 0 {
		errs = append(errs, fmt.Sprintf("Cannot delete workflow with %d running or suspended executions", active))
	}

	if total := w.ExecutionCount(); total > 0 {
		warnings = append(warnings, fmt.Sprintf("Workflow has %d executions. Deleting will remove execution history.", total))
	}

	return newResult(errs, warnings)
}

func isWellFormedXML(doc string) bool {
	decoder := xml.NewDecoder(strings.NewReader(doc))
	decoder.Strict = true

	sawElement := false
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return sawElement
		}
		if err != nil {
			return false
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawElement = true
		}
	}
}
