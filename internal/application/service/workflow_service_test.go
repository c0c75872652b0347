package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/application/port/porttest"
	"github.com/ukoquique-proves/JavaFlow/internal/application/usecase"
	"github.com/ukoquique-proves/JavaFlow/internal/application/validation"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

const invoiceBPMN = `<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL" targetNamespace="http://javaflow.io">
  <process id="invoiceProcess" isExecutable="true">
    <startEvent id="start"/>
    <endEvent id="end"/>
  </process>
</definitions>`

type serviceFixture struct {
	store     *porttest.Store
	engine    *porttest.Engine
	publisher *porttest.Publisher
	cache     *porttest.Cache
	metrics   *porttest.Metrics
	user      *entity.User
	svc       WorkflowService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	return newServiceFixtureWithCache(t, func(c *porttest.Cache) port.Cache { return c })
}

// newServiceFixtureWithCache lets a test wrap the recording cache the service talks to
func newServiceFixtureWithCache(t *testing.T, wrap func(*porttest.Cache) port.Cache) *serviceFixture {
	t.Helper()

	store := porttest.NewStore()
	f := &serviceFixture{
		store:     store,
		engine:    porttest.NewEngine(),
		publisher: &porttest.Publisher{},
		cache:     porttest.NewCache(),
		metrics:   porttest.NewMetrics(),
	}
	f.user = store.AddUser("alice")
	f.svc = NewWorkflowService(WorkflowServiceDeps{
		UseCases: usecase.Dependencies{
			Workflows:  &porttest.WorkflowRepository{Store: store},
			Executions: &porttest.ExecutionRepository{Store: store},
			Users:      &porttest.UserDirectory{Store: store},
			Engine:     f.engine,
			TxManager:  &porttest.TxManager{},
			Publisher:  f.publisher,
			Logger:     porttest.Logger{},
		},
		Validation: validation.NewService(),
		Cache:      wrap(f.cache),
		Metrics:    f.metrics,
		Logger:     porttest.Logger{},
	})
	return f
}

func (f *serviceFixture) addWorkflow(name string, status entity.WorkflowStatus) *entity.Workflow {
	w := entity.NewWorkflow(name, "", invoiceBPMN, f.user.ID)
	w.Status = status
	return f.store.AddWorkflow(w)
}

func (f *serviceFixture) addExecution(t *testing.T, w *entity.Workflow, status entity.ExecutionStatus) *entity.WorkflowExecution {
	t.Helper()

	e, err := w.CreateExecution(nil, nil)
	require.NoError(t, err)
	e.Status = status
	e.ProcessInstanceID = fmt.Sprintf("invoiceProcess-instance-%d", len(w.Executions))
	f.store.AddWorkflow(w)
	return e
}

func TestWorkflowService_CreateInvalidatesLists(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.addWorkflow("Existing Flow", entity.WorkflowStatusDraft)

	before, err := f.svc.ListWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.True(t, f.cache.Has(keyAllWorkflows))

	_, err = f.svc.CreateWorkflow(ctx, usecase.CreateWorkflowCommand{
		Name:       "Invoice Approval",
		Definition: invoiceBPMN,
		CreatorID:  f.user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.Clears)

	after, err := f.svc.ListWorkflows(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 2)
}

func TestWorkflowService_GetWorkflowFreshAfterActivate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusDraft)

	got, err := f.svc.GetWorkflow(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", got.Status)

	_, err = f.svc.ListWorkflowsByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, f.cache.Has(workflowsByUserKey(f.user.ID)))

	_, err = f.svc.ActivateWorkflow(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, f.cache.Has(workflowKey(w.ID)))
	assert.False(t, f.cache.Has(workflowsByUserKey(f.user.ID)))

	got, err = f.svc.GetWorkflow(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", got.Status)

	byUser, err := f.svc.ListWorkflowsByUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, "ACTIVE", byUser[0].Status)
}

func TestWorkflowService_CacheHitsAndMisses(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusDraft)

	for i := 0; i < 3; i++ {
		got, err := f.svc.GetWorkflow(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "Invoice Approval", got.Name)
		assert.Equal(t, "alice", got.CreatedByUsername)
	}

	hits, misses := f.metrics.Snapshot()
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, misses)
}

func TestWorkflowService_GetWorkflowNotFoundIsNotCached(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.GetWorkflow(context.Background(), 404)

	require.ErrorIs(t, err, errs.ErrWorkflowNotFound)
	assert.False(t, f.cache.Has(workflowKey(404)))
}

func TestWorkflowService_ConcurrentMissesShareLoad(t *testing.T) {
	f := newServiceFixture(t)
	f.addWorkflow("Invoice Approval", entity.WorkflowStatusDraft)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := f.svc.ListWorkflows(context.Background())
			assert.NoError(t, err)
			assert.Len(t, list, 1)
		}()
	}
	wg.Wait()

	hits, misses := f.metrics.Snapshot()
	assert.Equal(t, 16, hits+misses)
}

func TestWorkflowService_ExecutionChangesRefreshWorkflowStats(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)

	got, err := f.svc.GetWorkflow(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ExecutionCount)
	_, err = f.svc.ListWorkflowsWithExecutions(ctx)
	require.NoError(t, err)

	exec, err := f.svc.ExecuteWorkflow(ctx, usecase.ExecuteWorkflowCommand{WorkflowID: w.ID})
	require.NoError(t, err)
	assert.False(t, f.cache.Has(workflowKey(w.ID)))
	assert.False(t, f.cache.Has(keyAllWorkflowsWithExecs))

	got, err = f.svc.GetWorkflow(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ExecutionCount)
	assert.Equal(t, 1, got.ActiveExecutions)
	assert.Zero(t, got.SuccessRate)

	_, err = f.svc.UpdateExecutionStatus(ctx, exec.ProcessInstanceID, entity.ExecutionStatusCompleted, "")
	require.NoError(t, err)

	got, err = f.svc.GetWorkflow(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ExecutionCount)
	assert.Zero(t, got.ActiveExecutions)
	assert.Equal(t, 100.0, got.SuccessRate)

	list, err := f.svc.ListWorkflowsWithExecutions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 100.0, list[0].SuccessRate)
}

func TestWorkflowService_UserActionsRefreshWorkflowStats(t *testing.T) {
	tests := []struct {
		name       string
		status     entity.ExecutionStatus
		action     func(WorkflowService, context.Context, int64) (*usecase.WorkflowExecutionResult, error)
		wantActive int
	}{
		{name: "cancel", status: entity.ExecutionStatusRunning, action: WorkflowService.CancelExecution, wantActive: 0},
		{name: "suspend", status: entity.ExecutionStatusRunning, action: WorkflowService.SuspendExecution, wantActive: 1},
		{name: "resume", status: entity.ExecutionStatusSuspended, action: WorkflowService.ResumeExecution, wantActive: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			ctx := context.Background()
			w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
			e := f.addExecution(t, w, tt.status)

			_, err := f.svc.GetWorkflow(ctx, w.ID)
			require.NoError(t, err)
			_, err = f.svc.ListWorkflowsWithExecutions(ctx)
			require.NoError(t, err)

			_, err = tt.action(f.svc, ctx, e.ID)
			require.NoError(t, err)

			assert.False(t, f.cache.Has(workflowKey(w.ID)))
			assert.False(t, f.cache.Has(keyAllWorkflowsWithExecs))
			got, err := f.svc.GetWorkflow(ctx, w.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantActive, got.ActiveExecutions)
		})
	}
}

// gatedCache parks every Set until release is closed
type gatedCache struct {
	*porttest.Cache
	setting chan struct{}
	release chan struct{}
}

func (c *gatedCache) Set(ctx context.Context, key string, value interface{}) error {
	c.setting <- struct{}{}
	<-c.release
	return c.Cache.Set(ctx, key, value)
}

func TestWorkflowService_EvictionDuringStoreLeavesNoStaleEntry(t *testing.T) {
	gate := &gatedCache{setting: make(chan struct{}, 1), release: make(chan struct{})}
	f := newServiceFixtureWithCache(t, func(c *porttest.Cache) port.Cache {
		gate.Cache = c
		return gate
	})
	ctx := context.Background()
	w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
	svc := f.svc.(*workflowServiceImpl)

	loaded := make(chan error, 1)
	go func() {
		_, err := svc.GetWorkflow(ctx, w.ID)
		loaded <- err
	}()
	<-gate.setting

	evicted := make(chan struct{})
	go func() {
		svc.evictExecutionViews(ctx, w.ID)
		close(evicted)
	}()

	select {
	case <-evicted:
		t.Fatal("eviction finished while a store was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	require.NoError(t, <-loaded)
	<-evicted
	assert.False(t, f.cache.Has(workflowKey(w.ID)))
}

func TestReadThrough_SkipsStoreAfterConcurrentEviction(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	svc := f.svc.(*workflowServiceImpl)

	got, err := readThrough(ctx, svc, workflowKey(7), func(ctx context.Context) (string, error) {
		svc.evictExecutionViews(ctx, 7)
		return "stale", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "stale", got)
	assert.False(t, f.cache.Has(workflowKey(7)))

	got, err = readThrough(ctx, svc, workflowKey(7), func(ctx context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
	assert.True(t, f.cache.Has(workflowKey(7)))
}

func TestWorkflowService_ListWorkflowsByStatus(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.addWorkflow("Draft Flow", entity.WorkflowStatusDraft)
	f.addWorkflow("Active Flow", entity.WorkflowStatusActive)

	active, err := f.svc.ListWorkflowsByStatus(ctx, entity.WorkflowStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Active Flow", active[0].Name)

	_, err = f.svc.ListWorkflowsByStatus(ctx, entity.WorkflowStatus("PAUSED"))
	assert.ErrorIs(t, err, errs.ErrInvalidCommand)
}

func TestWorkflowService_DeactivateAndArchive(t *testing.T) {
	tests := []struct {
		name       string
		status     entity.WorkflowStatus
		action     func(WorkflowService, context.Context, int64) (*usecase.WorkflowResult, error)
		wantStatus string
		wantErr    error
		wantEvent  event.Type
	}{
		{
			name:       "deactivate active",
			status:     entity.WorkflowStatusActive,
			action:     WorkflowService.DeactivateWorkflow,
			wantStatus: "INACTIVE",
			wantEvent:  event.TypeWorkflowDeactivated,
		},
		{
			name:    "deactivate draft",
			status:  entity.WorkflowStatusDraft,
			action:  WorkflowService.DeactivateWorkflow,
			wantErr: errs.ErrWorkflowCannotBeActivated,
		},
		{
			name:       "archive inactive",
			status:     entity.WorkflowStatusInactive,
			action:     WorkflowService.ArchiveWorkflow,
			wantStatus: "ARCHIVED",
			wantEvent:  event.TypeWorkflowArchived,
		},
		{
			name:       "archive archived is a no-op",
			status:     entity.WorkflowStatusArchived,
			action:     WorkflowService.ArchiveWorkflow,
			wantStatus: "ARCHIVED",
		},
		{
			name:    "archive active",
			status:  entity.WorkflowStatusActive,
			action:  WorkflowService.ArchiveWorkflow,
			wantErr: errs.ErrWorkflowCannotBeActivated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			w := f.addWorkflow("Invoice Approval", tt.status)

			res, err := tt.action(f.svc, context.Background(), w.ID)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				stored, _ := f.store.Workflow(w.ID)
				assert.Equal(t, tt.status, stored.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			stored, _ := f.store.Workflow(w.ID)
			assert.Equal(t, tt.wantStatus, stored.Status.String())
			if tt.wantEvent != "" {
				assert.Equal(t, []event.Type{tt.wantEvent}, f.publisher.Types())
			} else {
				assert.Empty(t, f.publisher.Types())
			}
		})
	}
}

func TestWorkflowService_DeleteWorkflow(t *testing.T) {
	t.Run("removes workflow and history", func(t *testing.T) {
		f := newServiceFixture(t)
		w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
		f.addExecution(t, w, entity.ExecutionStatusCompleted)
		w.Status = entity.WorkflowStatusInactive
		f.store.AddWorkflow(w)

		err := f.svc.DeleteWorkflow(context.Background(), w.ID)

		require.NoError(t, err)
		_, ok := f.store.Workflow(w.ID)
		assert.False(t, ok)
		assert.Zero(t, f.store.ExecutionCount())
		assert.Equal(t, []event.Type{event.TypeWorkflowDeleted}, f.publisher.Types())
	})

	t.Run("blocked while active", func(t *testing.T) {
		f := newServiceFixture(t)
		w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)

		err := f.svc.DeleteWorkflow(context.Background(), w.ID)

		require.ErrorIs(t, err, errs.ErrWorkflowDeletionBlocked)
		assert.Contains(t, err.Error(), "Deactivate it first")
		_, ok := f.store.Workflow(w.ID)
		assert.True(t, ok)
	})

	t.Run("blocked by running executions", func(t *testing.T) {
		f := newServiceFixture(t)
		w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
		f.addExecution(t, w, entity.ExecutionStatusRunning)
		w.Status = entity.WorkflowStatusInactive
		f.store.AddWorkflow(w)

		err := f.svc.DeleteWorkflow(context.Background(), w.ID)

		require.ErrorIs(t, err, errs.ErrWorkflowDeletionBlocked)
		assert.Contains(t, err.Error(), "1 running or suspended executions")
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newServiceFixture(t)
		err := f.svc.DeleteWorkflow(context.Background(), 99)
		assert.ErrorIs(t, err, errs.ErrWorkflowNotFound)
	})
}

func TestWorkflowService_ExecutionQueries(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
	running := f.addExecution(t, w, entity.ExecutionStatusRunning)
	f.addExecution(t, w, entity.ExecutionStatusCompleted)

	got, err := f.svc.GetExecution(ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, "RUNNING", got.Status)

	byInstance, err := f.svc.GetExecutionByProcessInstanceID(ctx, running.ProcessInstanceID)
	require.NoError(t, err)
	assert.Equal(t, running.ID, byInstance.ExecutionID)

	list, err := f.svc.ListExecutionsByWorkflow(ctx, w.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	recent, err := f.svc.ListRecentExecutions(ctx, 24)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	_, err = f.svc.ListRecentExecutions(ctx, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidCommand)

	counts, err := f.svc.CountExecutionsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[entity.ExecutionStatusRunning])
	assert.Equal(t, int64(1), counts[entity.ExecutionStatusCompleted])

	_, err = f.svc.GetExecution(ctx, 404)
	assert.ErrorIs(t, err, errs.ErrExecutionNotFound)
	_, err = f.svc.GetExecutionByProcessInstanceID(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrExecutionNotFound)
}

func TestWorkflowService_CancelExecution(t *testing.T) {
	t.Run("cancels the engine instance", func(t *testing.T) {
		f := newServiceFixture(t)
		w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
		e := f.addExecution(t, w, entity.ExecutionStatusRunning)

		res, err := f.svc.CancelExecution(context.Background(), e.ID)

		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", res.Status)
		assert.NotNil(t, res.EndedAt)
		assert.Equal(t, CancelReason, f.engine.Deleted[e.ProcessInstanceID])
		stored, _ := f.store.Execution(e.ID)
		assert.Equal(t, entity.ExecutionStatusCancelled, stored.Status)
	})

	t.Run("engine failure keeps the execution running", func(t *testing.T) {
		f := newServiceFixture(t)
		w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
		e := f.addExecution(t, w, entity.ExecutionStatusRunning)
		f.engine.DeleteErr = assert.AnError

		_, err := f.svc.CancelExecution(context.Background(), e.ID)

		require.ErrorIs(t, err, errs.ErrEngine)
		stored, _ := f.store.Execution(e.ID)
		assert.Equal(t, entity.ExecutionStatusRunning, stored.Status)
		assert.Empty(t, f.publisher.Types())
	})

	t.Run("finished execution", func(t *testing.T) {
		f := newServiceFixture(t)
		w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
		e := f.addExecution(t, w, entity.ExecutionStatusCompleted)

		_, err := f.svc.CancelExecution(context.Background(), e.ID)

		require.ErrorIs(t, err, errs.ErrInvalidExecutionTransition)
		assert.Empty(t, f.engine.Deleted)
	})
}

func TestWorkflowService_SuspendResume(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
	e := f.addExecution(t, w, entity.ExecutionStatusRunning)

	res, err := f.svc.SuspendExecution(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "SUSPENDED", res.Status)

	_, err = f.svc.SuspendExecution(ctx, e.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidExecutionTransition)

	res, err = f.svc.ResumeExecution(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "RUNNING", res.Status)
	assert.Nil(t, res.EndedAt)
}

func TestWorkflowService_UpdateExecutionStatus(t *testing.T) {
	tests := []struct {
		name       string
		current    entity.ExecutionStatus
		reported   entity.ExecutionStatus
		message    string
		wantStatus entity.ExecutionStatus
		wantErr    error
		wantEvents int
	}{
		{"running to completed", entity.ExecutionStatusRunning, entity.ExecutionStatusCompleted, "", entity.ExecutionStatusCompleted, nil, 1},
		{"running to failed", entity.ExecutionStatusRunning, entity.ExecutionStatusFailed, "boom", entity.ExecutionStatusFailed, nil, 1},
		{"redelivered completion", entity.ExecutionStatusCompleted, entity.ExecutionStatusCompleted, "", entity.ExecutionStatusCompleted, nil, 0},
		{"running reported again", entity.ExecutionStatusRunning, entity.ExecutionStatusRunning, "", entity.ExecutionStatusRunning, nil, 0},
		{"failure after completion", entity.ExecutionStatusCompleted, entity.ExecutionStatusFailed, "late", entity.ExecutionStatusCompleted, errs.ErrExecutionConflict, 0},
		{"completion while suspended", entity.ExecutionStatusSuspended, entity.ExecutionStatusCompleted, "", entity.ExecutionStatusSuspended, errs.ErrExecutionConflict, 0},
		{"running resumes suspended", entity.ExecutionStatusSuspended, entity.ExecutionStatusRunning, "", entity.ExecutionStatusRunning, nil, 1},
		{"unknown status", entity.ExecutionStatusRunning, entity.ExecutionStatus("EXPLODED"), "", entity.ExecutionStatusRunning, errs.ErrInvalidCommand, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
			e := f.addExecution(t, w, tt.current)

			res, err := f.svc.UpdateExecutionStatus(context.Background(), e.ProcessInstanceID, tt.reported, tt.message)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus.String(), res.Status)
			}
			stored, _ := f.store.Execution(e.ID)
			assert.Equal(t, tt.wantStatus, stored.Status)
			assert.Len(t, f.publisher.Events(), tt.wantEvents)
			if tt.wantStatus == entity.ExecutionStatusFailed {
				assert.Equal(t, tt.message, stored.ErrorMessage)
			}
		})
	}
}

func TestWorkflowService_ConcurrentStatusCallbacks(t *testing.T) {
	f := newServiceFixture(t)
	w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
	e := f.addExecution(t, w, entity.ExecutionStatusRunning)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.svc.UpdateExecutionStatus(context.Background(), e.ProcessInstanceID, entity.ExecutionStatusCompleted, "")
		}()
		go func() {
			defer wg.Done()
			_, _ = f.svc.UpdateExecutionStatus(context.Background(), e.ProcessInstanceID, entity.ExecutionStatusFailed, "boom")
		}()
	}
	wg.Wait()

	stored, _ := f.store.Execution(e.ID)
	require.True(t, stored.Status.IsFinished())
	require.NotNil(t, stored.EndedAt)
	assert.Len(t, f.publisher.Events(), 1, "exactly one terminal transition must win")
	if stored.Status == entity.ExecutionStatusFailed {
		assert.Equal(t, "boom", stored.ErrorMessage)
	} else {
		assert.Empty(t, stored.ErrorMessage)
	}
}

func TestWorkflowService_HandleLifecycle(t *testing.T) {
	tests := []struct {
		lifecycle  port.LifecycleEvent
		wantStatus entity.ExecutionStatus
	}{
		{port.LifecycleStart, entity.ExecutionStatusRunning},
		{port.LifecycleEnd, entity.ExecutionStatusCompleted},
		{port.LifecycleError, entity.ExecutionStatusFailed},
		{port.LifecycleEvent("take"), entity.ExecutionStatusRunning},
	}

	for _, tt := range tests {
		t.Run(string(tt.lifecycle), func(t *testing.T) {
			f := newServiceFixture(t)
			w := f.addWorkflow("Invoice Approval", entity.WorkflowStatusActive)
			e := f.addExecution(t, w, entity.ExecutionStatusRunning)

			f.svc.HandleLifecycle(context.Background(), e.ProcessInstanceID, tt.lifecycle, "engine error")

			stored, _ := f.store.Execution(e.ID)
			assert.Equal(t, tt.wantStatus, stored.Status)
		})
	}
}

func TestKeyedMutex_ReleasesKeys(t *testing.T) {
	km := newKeyedMutex()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(7)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Zero(t, km.size())
}

func TestEvictionKeys(t *testing.T) {
	keys := evictionKeys(3, 9)
	assert.ElementsMatch(t, []string{
		"workflow:3",
		"workflows:by-user:9",
		"workflows:all",
		"workflows:all-with-creator",
		"workflows:all-with-executions",
	}, keys)
}
