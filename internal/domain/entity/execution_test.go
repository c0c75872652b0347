package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

func newExecution(status ExecutionStatus) *WorkflowExecution {
	e := &WorkflowExecution{
		ID:                9,
		WorkflowID:        42,
		WorkflowName:      "Order Process",
		ProcessInstanceID: "proc-1",
		Status:            status,
		StartedAt:         now().Add(-time.Minute),
	}
	if status.IsFinished() {
		ended := e.StartedAt.Add(30 * time.Second)
		e.EndedAt = &ended
	}
	return e
}

func TestWorkflowExecution_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    ExecutionStatus
		action  func(e *WorkflowExecution) error
		want    ExecutionStatus
		wantErr bool
	}{
		{"complete running", ExecutionStatusRunning, (*WorkflowExecution).Complete, ExecutionStatusCompleted, false},
		{"complete suspended", ExecutionStatusSuspended, (*WorkflowExecution).Complete, ExecutionStatusSuspended, true},
		{"cancel running", ExecutionStatusRunning, (*WorkflowExecution).Cancel, ExecutionStatusCancelled, false},
		{"cancel suspended", ExecutionStatusSuspended, (*WorkflowExecution).Cancel, ExecutionStatusCancelled, false},
		{"cancel completed", ExecutionStatusCompleted, (*WorkflowExecution).Cancel, ExecutionStatusCompleted, true},
		{"suspend running", ExecutionStatusRunning, (*WorkflowExecution).Suspend, ExecutionStatusSuspended, false},
		{"suspend suspended", ExecutionStatusSuspended, (*WorkflowExecution).Suspend, ExecutionStatusSuspended, true},
		{"resume suspended", ExecutionStatusSuspended, (*WorkflowExecution).Resume, ExecutionStatusRunning, false},
		{"resume running", ExecutionStatusRunning, (*WorkflowExecution).Resume, ExecutionStatusRunning, true},
		{"resume failed", ExecutionStatusFailed, (*WorkflowExecution).Resume, ExecutionStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExecution(tt.from)

			err := tt.action(e)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrInvalidExecutionTransition)
				assert.Empty(t, e.PullEvents())
			} else {
				require.NoError(t, err)
				evts := e.PullEvents()
				require.Len(t, evts, 1)
				assert.Equal(t, event.TypeExecutionStatusChanged, evts[0].Type)
				assert.Equal(t, tt.from.String(), evts[0].GetPayloadString(event.KeyPreviousStatus))
				assert.Equal(t, tt.want.String(), evts[0].GetPayloadString(event.KeyStatus))
			}
			assert.Equal(t, tt.want, e.Status)
			assert.Equal(t, tt.want.IsFinished(), e.EndedAt != nil)
		})
	}
}

func TestWorkflowExecution_Fail(t *testing.T) {
	e := newExecution(ExecutionStatusRunning)

	require.NoError(t, e.Fail("engine timeout"))
	assert.Equal(t, ExecutionStatusFailed, e.Status)
	assert.Equal(t, "engine timeout", e.ErrorMessage)
	require.NotNil(t, e.EndedAt)
	assert.Equal(t, "Execution failed: engine timeout", e.StatusDescription())

	err := e.Fail("again")
	assert.ErrorIs(t, err, errs.ErrInvalidExecutionTransition)
	assert.Equal(t, "engine timeout", e.ErrorMessage)
}

func TestWorkflowExecution_FailWithoutMessage(t *testing.T) {
	e := newExecution(ExecutionStatusSuspended)

	require.NoError(t, e.Fail(""))
	assert.Equal(t, "Unknown error", e.ErrorMessage)
}

func TestWorkflowExecution_EndedAtProperty(t *testing.T) {
	actions := map[string]func(e *WorkflowExecution) error{
		"complete": (*WorkflowExecution).Complete,
		"fail":     func(e *WorkflowExecution) error { return e.Fail("boom") },
		"cancel":   (*WorkflowExecution).Cancel,
		"suspend":  (*WorkflowExecution).Suspend,
		"resume":   (*WorkflowExecution).Resume,
	}
	names := []string{"complete", "fail", "cancel", "suspend", "resume"}

	rapid.Check(t, func(t *rapid.T) {
		e := newExecution(ExecutionStatusRunning)
		steps := rapid.SliceOfN(rapid.SampledFrom(names), 1, 12).Draw(t, "steps")

		for _, step := range steps {
			before := e.Status
			err := actions[step](e)
			if before.IsFinished() && err == nil {
				t.Fatalf("%s succeeded on finished execution in %s", step, before)
			}
			if e.Status.IsFinished() != (e.EndedAt != nil) {
				t.Fatalf("endedAt mismatch for status %s", e.Status)
			}
			if (e.ErrorMessage != "") != (e.Status == ExecutionStatusFailed) {
				t.Fatalf("error message %q present for status %s", e.ErrorMessage, e.Status)
			}
		}
	})
}

func TestWorkflowExecution_ApplyStatus(t *testing.T) {
	tests := []struct {
		name        string
		from        ExecutionStatus
		apply       ExecutionStatus
		wantChanged bool
		wantStatus  ExecutionStatus
		wantErr     error
	}{
		{"start acknowledged for running", ExecutionStatusRunning, ExecutionStatusRunning, false, ExecutionStatusRunning, nil},
		{"running completes", ExecutionStatusRunning, ExecutionStatusCompleted, true, ExecutionStatusCompleted, nil},
		{"running fails", ExecutionStatusRunning, ExecutionStatusFailed, true, ExecutionStatusFailed, nil},
		{"suspended resumes", ExecutionStatusSuspended, ExecutionStatusRunning, true, ExecutionStatusRunning, nil},
		{"duplicate completion", ExecutionStatusCompleted, ExecutionStatusCompleted, false, ExecutionStatusCompleted, nil},
		{"different terminal on finished", ExecutionStatusCompleted, ExecutionStatusFailed, false, ExecutionStatusCompleted, errs.ErrExecutionConflict},
		{"running reported after finish", ExecutionStatusCancelled, ExecutionStatusRunning, false, ExecutionStatusCancelled, errs.ErrExecutionConflict},
		{"completion of suspended", ExecutionStatusSuspended, ExecutionStatusCompleted, false, ExecutionStatusSuspended, errs.ErrExecutionConflict},
		{"unknown status", ExecutionStatusRunning, ExecutionStatus("LOST"), false, ExecutionStatusRunning, errs.ErrInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExecution(tt.from)

			changed, err := e.ApplyStatus(tt.apply, "engine error")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantStatus, e.Status)
		})
	}
}

func TestWorkflowExecution_Duration(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	restore := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = restore })

	e := &WorkflowExecution{Status: ExecutionStatusRunning, StartedAt: fixed.Add(-90 * time.Second)}
	assert.Equal(t, 90*time.Second, e.Duration())
	assert.Equal(t, int64(90000), e.DurationMillis())
	assert.Equal(t, int64(90), e.DurationSeconds())
	assert.True(t, e.IsRunningLongerThan(time.Minute))
	assert.False(t, e.IsRunningLongerThan(2*time.Minute))

	ended := fixed.Add(-30 * time.Second)
	e.Status = ExecutionStatusCompleted
	e.EndedAt = &ended
	assert.Equal(t, time.Minute, e.Duration())
	assert.False(t, e.IsRunningLongerThan(time.Second))
}

func TestWorkflowExecution_StatusDescription(t *testing.T) {
	tests := map[ExecutionStatus]string{
		ExecutionStatusRunning:   "Execution in progress",
		ExecutionStatusCompleted: "Execution completed successfully",
		ExecutionStatusFailed:    "Execution failed: Unknown error",
		ExecutionStatusCancelled: "Execution cancelled",
		ExecutionStatusSuspended: "Execution suspended",
	}

	for status, want := range tests {
		e := &WorkflowExecution{Status: status}
		assert.Equal(t, want, e.StatusDescription(), status.String())
	}
}

func TestWorkflowExecution_VariablesMap(t *testing.T) {
	e := &WorkflowExecution{Variables: `{"orderId":"A-1","amount":12.5}`}

	vars, err := e.VariablesMap()
	require.NoError(t, err)
	assert.Equal(t, "A-1", vars["orderId"])
	assert.Equal(t, 12.5, vars["amount"])

	e.Variables = "{broken"
	_, err = e.VariablesMap()
	assert.Error(t, err)

	e.Variables = ""
	vars, err = e.VariablesMap()
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestWorkflowExecution_InitiatorName(t *testing.T) {
	userID := int64(3)
	e := &WorkflowExecution{StartedBy: &userID, StartedByUsername: "alice"}
	assert.Equal(t, "alice", e.InitiatorName())

	e.StartedBy = nil
	assert.Equal(t, SystemInitiator, e.InitiatorName())
}
