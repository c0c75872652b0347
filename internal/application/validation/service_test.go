package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
)

const fullBPMN = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="defs">
  <bpmn:process id="approval" isExecutable="true">
    <bpmn:startEvent id="start"/>
    <bpmn:endEvent id="end"/>
  </bpmn:process>
</bpmn:definitions>`

func TestService_ValidateDefinition(t *testing.T) {
	svc := NewService()

	tests := []struct {
		name         string
		definition   string
		wantValid    bool
		wantErrors   []string
		wantWarnings []string
	}{
		{
			name:       "complete definition",
			definition: fullBPMN,
			wantValid:  true,
		},
		{
			name:       "blank",
			definition: "  ",
			wantValid:  false,
			wantErrors: []string{"BPMN XML is required"},
		},
		{
			name:       "malformed xml",
			definition: `<definitions><process id="p"><startEvent/><endEvent/></definitions>`,
			wantValid:  false,
			wantErrors: []string{"Invalid XML structure"},
		},
		{
			name:       "missing definitions",
			definition: `<process id="p"><startEvent/><endEvent/></process>`,
			wantValid:  false,
			wantErrors: []string{"Missing BPMN namespace or definitions element"},
		},
		{
			name:       "missing process",
			definition: `<definitions><collaboration id="c"/></definitions>`,
			wantValid:  false,
			wantErrors: []string{"No process definition found"},
			wantWarnings: []string{
				"No start event found in process",
				"No end event found in process",
			},
		},
		{
			name:         "no events",
			definition:   `<bpmn2:definitions xmlns:bpmn2="x"><bpmn2:process id="p"/></bpmn2:definitions>`,
			wantValid:    true,
			wantWarnings: []string{"No start event found in process", "No end event found in process"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.ValidateDefinition(tt.definition)

			assert.Equal(t, tt.wantValid, res.Valid)
			assert.ElementsMatch(t, tt.wantErrors, res.Errors)
			assert.ElementsMatch(t, tt.wantWarnings, res.Warnings)
		})
	}
}

func TestService_ValidateBusinessRules(t *testing.T) {
	svc := NewService()

	valid := func() *entity.Workflow {
		return &entity.Workflow{Name: "Order Approval", Version: 1, Status: entity.WorkflowStatusDraft}
	}

	t.Run("valid", func(t *testing.T) {
		res := svc.ValidateBusinessRules(valid())
		assert.True(t, res.Valid)
		assert.False(t, res.HasWarnings())
	})

	t.Run("test name warns", func(t *testing.T) {
		w := valid()
		w.Name = "Test Flow"

		res := svc.ValidateBusinessRules(w)
		assert.True(t, res.Valid)
		assert.True(t, res.HasWarnings())
		assert.Contains(t, res.WarningMessage(), "contains 'test'")
	})

	t.Run("charset", func(t *testing.T) {
		w := valid()
		w.Name = "Order<script>"

		res := svc.ValidateBusinessRules(w)
		assert.False(t, res.Valid)
		assert.Contains(t, res.ErrorMessage(), "Workflow name must be between 3 and 100 characters")
	})

	t.Run("multiple errors joined", func(t *testing.T) {
		w := valid()
		w.Name = ""
		w.Version = 0
		w.Status = ""
		w.Description = strings.Repeat("d", 501)

		res := svc.ValidateBusinessRules(w)
		assert.False(t, res.Valid)
		assert.Len(t, res.Errors, 4)
		assert.Equal(t, strings.Join(res.Errors, "; "), res.ErrorMessage())
		assert.Contains(t, res.ErrorMessage(), "Workflow name is required")
		assert.Contains(t, res.ErrorMessage(), "Workflow version must be greater than 0")
	})
}

func TestService_ValidateDeletion(t *testing.T) {
	svc := NewService()

	tests := []struct {
		name         string
		status       entity.WorkflowStatus
		executions   []entity.ExecutionStatus
		wantValid    bool
		wantErrors   int
		wantWarnings int
	}{
		{"draft without history", entity.WorkflowStatusDraft, nil, true, 0, 0},
		{"inactive with history", entity.WorkflowStatusInactive, []entity.ExecutionStatus{entity.ExecutionStatusCompleted}, true, 0, 1},
		{"active", entity.WorkflowStatusActive, nil, false, 1, 0},
		{"running execution", entity.WorkflowStatusInactive, []entity.ExecutionStatus{entity.ExecutionStatusRunning, entity.ExecutionStatusSuspended}, false, 1, 1},
		{"active with running execution", entity.WorkflowStatusActive, []entity.ExecutionStatus{entity.ExecutionStatusRunning}, false, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &entity.Workflow{Name: "Order Approval", Status: tt.status}
			for _, st := range tt.executions {
				w.Executions = append(w.Executions, &entity.WorkflowExecution{Status: st})
			}

			res := svc.ValidateDeletion(w)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Len(t, res.Errors, tt.wantErrors)
			assert.Len(t, res.Warnings, tt.wantWarnings)
		})
	}

	res := svc.ValidateDeletion(&entity.Workflow{Status: entity.WorkflowStatusActive})
	assert.Equal(t, "Cannot delete active workflow. Deactivate it first.", res.ErrorMessage())
}
