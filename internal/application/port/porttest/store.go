// Package porttest provides in-memory implementations of the application ports for tests.
// Stored entities are copied in and out so callers observe only what was persisted.
package porttest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
)

// Store is a shared in-memory backing for the workflow, execution and user fakes
type Store struct {
	mu         sync.Mutex
	nextID     int64
	workflows  map[int64]entity.Workflow
	executions map[int64]entity.WorkflowExecution
	users      map[int64]entity.User
	bots       map[int64]entity.BotConfiguration
	messages   map[int64]entity.Message

	// Error injection, consulted before each call of the matching kind
	FindErr   error
	CreateErr error
	UpdateErr error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		workflows:  make(map[int64]entity.Workflow),
		executions: make(map[int64]entity.WorkflowExecution),
		users:      make(map[int64]entity.User),
		bots:       make(map[int64]entity.BotConfiguration),
		messages:   make(map[int64]entity.Message),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddUser stores a user and returns it with its assigned ID
func (s *Store) AddUser(username string) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := entity.User{ID: s.id(), Username: username, Email: username + "@javaflow.io", Active: true, CreatedAt: time.Now()}
	s.users[u.ID] = u
	return &u
}

// AddWorkflow stores a workflow as-is, assigning an ID when it has none
func (s *Store) AddWorkflow(w *entity.Workflow) *entity.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == 0 {
		w.ID = s.id()
	}
	s.workflows[w.ID] = detachWorkflow(w)
	for _, e := range w.Executions {
		if e.ID == 0 {
			e.ID = s.id()
		}
		e.WorkflowID = w.ID
		s.executions[e.ID] = detachExecution(e)
	}
	return w
}

// Workflow returns the stored copy of a workflow
func (s *Store) Workflow(id int64) (*entity.Workflow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workflows[id]
	if !ok {
		return nil, false
	}
	return &w, true
}

// Execution returns the stored copy of an execution
func (s *Store) Execution(id int64) (*entity.WorkflowExecution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.executions[id]
	if !ok {
		return nil, false
	}
	return &e, true
}

// ExecutionCount is the number of stored executions
func (s *Store) ExecutionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.executions)
}

func detachWorkflow(w *entity.Workflow) entity.Workflow {
	cp := *w
	cp.Creator = nil
	cp.Executions = nil
	cp.PullEvents()
	return cp
}

func detachExecution(e *entity.WorkflowExecution) entity.WorkflowExecution {
	cp := *e
	cp.PullEvents()
	if e.EndedAt != nil {
		ended := *e.EndedAt
		cp.EndedAt = &ended
	}
	return cp
}

// WorkflowRepository is an in-memory port.WorkflowRepository
type WorkflowRepository struct {
	*Store
}

func (r *WorkflowRepository) Create(ctx context.Context, w *entity.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return r.CreateErr
	}
	for _, existing := range r.workflows {
		if existing.Name == w.Name {
			return errs.ErrWorkflowAlreadyExists.Withf("Workflow with name '%s' already exists", w.Name)
		}
	}
	w.ID = r.id()
	r.workflows[w.ID] = detachWorkflow(w)
	return nil
}

func (r *WorkflowRepository) Update(ctx context.Context, w *entity.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	if _, ok := r.workflows[w.ID]; !ok {
		return errs.ErrWorkflowNotFound
	}
	r.workflows[w.ID] = detachWorkflow(w)
	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.workflows, id)
	for execID, e := range r.executions {
		if e.WorkflowID == id {
			delete(r.executions, execID)
		}
	}
	return nil
}

func (r *WorkflowRepository) FindByID(ctx context.Context, id int64) (*entity.Workflow, error) {
	return r.findOne(func(w *entity.Workflow) bool { return w.ID == id }, false)
}

func (r *WorkflowRepository) FindWithDetailsByID(ctx context.Context, id int64) (*entity.Workflow, error) {
	return r.findOne(func(w *entity.Workflow) bool { return w.ID == id }, true)
}

func (r *WorkflowRepository) FindByName(ctx context.Context, name string) (*entity.Workflow, error) {
	return r.findOne(func(w *entity.Workflow) bool { return strings.EqualFold(w.Name, name) }, false)
}

func (r *WorkflowRepository) FindAll(ctx context.Context) ([]*entity.Workflow, error) {
	return r.findMany(func(*entity.Workflow) bool { return true }, false)
}

func (r *WorkflowRepository) FindAllWithCreator(ctx context.Context) ([]*entity.Workflow, error) {
	return r.findMany(func(*entity.Workflow) bool { return true }, true)
}

func (r *WorkflowRepository) FindAllWithExecutions(ctx context.Context) ([]*entity.Workflow, error) {
	return r.findMany(func(*entity.Workflow) bool { return true }, true)
}

func (r *WorkflowRepository) FindByStatus(ctx context.Context, status entity.WorkflowStatus) ([]*entity.Workflow, error) {
	return r.findMany(func(w *entity.Workflow) bool { return w.Status == status }, false)
}

func (r *WorkflowRepository) FindByCreator(ctx context.Context, userID int64) ([]*entity.Workflow, error) {
	return r.findMany(func(w *entity.Workflow) bool { return w.CreatedBy == userID }, false)
}

func (r *WorkflowRepository) findOne(match func(*entity.Workflow) bool, details bool) (*entity.Workflow, error) {
	found, err := r.findMany(match, details)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *WorkflowRepository) findMany(match func(*entity.Workflow) bool, details bool) ([]*entity.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FindErr != nil {
		return nil, r.FindErr
	}

	var out []*entity.Workflow
	for _, stored := range r.workflows {
		w := stored
		if !match(&w) {
			continue
		}
		if details {
			if u, ok := r.users[w.CreatedBy]; ok {
				w.Creator = &u
			}
			for _, e := range r.executions {
				if e.WorkflowID == w.ID {
					ex := e
					w.Executions = append(w.Executions, &ex)
				}
			}
		}
		out = append(out, &w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ExecutionRepository is an in-memory port.ExecutionRepository
type ExecutionRepository struct {
	*Store
}

func (r *ExecutionRepository) Create(ctx context.Context, e *entity.WorkflowExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return r.CreateErr
	}
	e.ID = r.id()
	r.executions[e.ID] = detachExecution(e)
	return nil
}

func (r *ExecutionRepository) UpdateStatus(ctx context.Context, e *entity.WorkflowExecution, expected entity.ExecutionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	stored, ok := r.executions[e.ID]
	if !ok || stored.Status != expected {
		return errs.ErrExecutionConflict.Withf("Execution %d changed concurrently", e.ID)
	}
	r.executions[e.ID] = detachExecution(e)
	return nil
}

func (r *ExecutionRepository) FindByID(ctx context.Context, id int64) (*entity.WorkflowExecution, error) {
	return r.findOne(func(e *entity.WorkflowExecution) bool { return e.ID == id })
}

func (r *ExecutionRepository) FindByProcessInstanceID(ctx context.Context, processInstanceID string) (*entity.WorkflowExecution, error) {
	return r.findOne(func(e *entity.WorkflowExecution) bool { return e.ProcessInstanceID == processInstanceID })
}

func (r *ExecutionRepository) FindByWorkflowID(ctx context.Context, workflowID int64) ([]*entity.WorkflowExecution, error) {
	return r.findMany(func(e *entity.WorkflowExecution) bool { return e.WorkflowID == workflowID })
}

func (r *ExecutionRepository) FindByStatus(ctx context.Context, status entity.ExecutionStatus) ([]*entity.WorkflowExecution, error) {
	return r.findMany(func(e *entity.WorkflowExecution) bool { return e.Status == status })
}

func (r *ExecutionRepository) FindStartedSince(ctx context.Context, since time.Time) ([]*entity.WorkflowExecution, error) {
	return r.findMany(func(e *entity.WorkflowExecution) bool { return !e.StartedAt.Before(since) })
}

func (r *ExecutionRepository) CountByStatus(ctx context.Context) (map[entity.ExecutionStatus]int64, error) {
	all, err := r.findMany(func(*entity.WorkflowExecution) bool { return true })
	if err != nil {
		return nil, err
	}
	counts := make(map[entity.ExecutionStatus]int64)
	for _, e := range all {
		counts[e.Status]++
	}
	return counts, nil
}

func (r *ExecutionRepository) findOne(match func(*entity.WorkflowExecution) bool) (*entity.WorkflowExecution, error) {
	found, err := r.findMany(match)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *ExecutionRepository) findMany(match func(*entity.WorkflowExecution) bool) ([]*entity.WorkflowExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FindErr != nil {
		return nil, r.FindErr
	}

	var out []*entity.WorkflowExecution
	for _, stored := range r.executions {
		e := stored
		if match(&e) {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UserDirectory is an in-memory port.UserDirectory
type UserDirectory struct {
	*Store
}

func (d *UserDirectory) Lookup(ctx context.Context, id int64) (*entity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return nil, errs.ErrUserNotFound.Withf("User not found with ID: %d", id)
	}
	return &u, nil
}
