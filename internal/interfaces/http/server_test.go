package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/application/port/porttest"
	"github.com/ukoquique-proves/JavaFlow/internal/application/service"
	"github.com/ukoquique-proves/JavaFlow/internal/application/usecase"
	"github.com/ukoquique-proves/JavaFlow/internal/application/validation"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/event"
)

const orderBPMN = `<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL" targetNamespace="http://javaflow.io">
  <process id="orderProcess" isExecutable="true">
    <startEvent id="start"/>
    <endEvent id="end"/>
  </process>
</definitions>`

type recordingInbound struct {
	mu     sync.Mutex
	events []*event.Event
}

func (r *recordingInbound) Publish(ctx context.Context, evt *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

type serverFixture struct {
	store   *porttest.Store
	engine  *porttest.Engine
	sender  *porttest.Sender
	inbound *recordingInbound
	user    *entity.User
	server  *Server
}

func newServerFixture(t *testing.T, inbound bool) *serverFixture {
	t.Helper()

	store := porttest.NewStore()
	f := &serverFixture{
		store:  store,
		engine: porttest.NewEngine(),
		sender: &porttest.Sender{BotType: entity.BotTypeTelegram},
	}
	f.user = store.AddUser("alice")

	workflows := service.NewWorkflowService(service.WorkflowServiceDeps{
		UseCases: usecase.Dependencies{
			Workflows:  &porttest.WorkflowRepository{Store: store},
			Executions: &porttest.ExecutionRepository{Store: store},
			Users:      &porttest.UserDirectory{Store: store},
			Engine:     f.engine,
			TxManager:  &porttest.TxManager{},
			Publisher:  &porttest.Publisher{},
			Logger:     porttest.Logger{},
		},
		Validation: validation.NewService(),
		Cache:      porttest.NewCache(),
		Logger:     porttest.Logger{},
	})

	deps := Deps{
		Workflows: workflows,
		Users:     service.NewUserService(&porttest.UserRepository{Store: store}, porttest.Logger{}),
		Bots: service.NewBotService(service.BotServiceDeps{
			Bots:      &porttest.BotRepository{Store: store},
			Messages:  &porttest.MessageRepository{Store: store},
			Workflows: workflows,
			Cipher:    porttest.Cipher{},
			Senders:   []port.BotSender{f.sender},
			Logger:    porttest.Logger{},
		}),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("javaflow_up 1\n"))
		}),
		Logger: porttest.Logger{},
	}
	if inbound {
		f.inbound = &recordingInbound{}
		deps.Inbound = f.inbound
	}

	f.server = NewServer(DefaultServerConfig(), deps)
	return f
}

func (f *serverFixture) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, req)
	return w
}

func (f *serverFixture) createWorkflow(t *testing.T, name string) int64 {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/v1/workflows",
		CreateWorkflowRequest{Name: name, Definition: orderBPMN},
		UserIDHeader, strconv.FormatInt(f.user.ID, 10))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data usecase.WorkflowResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ID
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	assert.Equal(t, problemContentType, w.Header().Get("Content-Type"))
	var p map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func TestServer_HealthAndMetrics(t *testing.T) {
	f := newServerFixture(t, false)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	w = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "javaflow_up 1")
}

func TestServer_HealthUnhealthy(t *testing.T) {
	f := newServerFixture(t, false)
	f.server = NewServer(DefaultServerConfig(), Deps{
		Health: func() (bool, interface{}) {
			return false, map[string]string{"database": "down"}
		},
		Logger: porttest.Logger{},
	})

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database")
}

func TestServer_CreateWorkflow(t *testing.T) {
	f := newServerFixture(t, false)

	t.Run("created", func(t *testing.T) {
		id := f.createWorkflow(t, "Order Flow")
		assert.Positive(t, id)
	})

	t.Run("missing creator header", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/workflows", CreateWorkflowRequest{Name: "Another Flow", Definition: orderBPMN})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		p := decodeProblem(t, w)
		assert.Equal(t, "validation_error", p["type"])
		errsField, ok := p["errors"].(map[string]interface{})
		require.True(t, ok, w.Body.String())
		assert.Equal(t, "creator_id is required", errsField["creator_id"])
	})

	t.Run("duplicate name", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/workflows",
			CreateWorkflowRequest{Name: "Order Flow", Definition: orderBPMN},
			UserIDHeader, strconv.FormatInt(f.user.ID, 10))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "WORKFLOW_ALREADY_EXISTS", decodeProblem(t, w)["code"])
	})

	t.Run("malformed header", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/workflows",
			CreateWorkflowRequest{Name: "Third Flow", Definition: orderBPMN},
			UserIDHeader, "abc")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_WorkflowNotFound(t *testing.T) {
	f := newServerFixture(t, false)

	w := f.do(t, http.MethodGet, "/api/v1/workflows/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	p := decodeProblem(t, w)
	assert.Equal(t, "not_found", p["type"])
	assert.Equal(t, "Not Found", p["title"])
	assert.Equal(t, float64(http.StatusNotFound), p["status"])
	assert.Equal(t, "Workflow not found with ID: 999", p["detail"])
	assert.Equal(t, "/api/v1/workflows/999", p["instance"])
	assert.Equal(t, "WORKFLOW_NOT_FOUND", p["code"])

	w = f.do(t, http.MethodGet, "/api/v1/workflows/999/executions", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_InvalidPathID(t *testing.T) {
	f := newServerFixture(t, false)

	w := f.do(t, http.MethodGet, "/api/v1/workflows/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_ActivateExecuteComplete(t *testing.T) {
	f := newServerFixture(t, false)
	id := f.createWorkflow(t, "Order Flow")
	base := "/api/v1/workflows/" + strconv.FormatInt(id, 10)

	w := f.do(t, http.MethodPost, base+"/activate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, f.engine.DeploymentCount())

	w = f.do(t, http.MethodPost, base+"/execute",
		ExecuteWorkflowRequest{Variables: map[string]interface{}{"amount": 42}},
		UserIDHeader, strconv.FormatInt(f.user.ID, 10))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var exec struct {
		Data usecase.WorkflowExecutionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exec))
	assert.Equal(t, entity.ExecutionStatusRunning.String(), exec.Data.Status)
	require.NotEmpty(t, exec.Data.ProcessInstanceID)

	w = f.do(t, http.MethodGet, base+"/executions?size=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data PageResponse[usecase.WorkflowExecutionResult] `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Data.TotalElements)
	assert.Equal(t, 5, page.Data.Size)

	w = f.do(t, http.MethodPost, "/api/v1/engine/events", EngineEventRequest{
		ProcessInstanceID: exec.Data.ProcessInstanceID,
		Event:             "end",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/v1/executions/by-instance/"+url.PathEscape(exec.Data.ProcessInstanceID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exec))
	assert.Equal(t, entity.ExecutionStatusCompleted.String(), exec.Data.Status)

	w = f.do(t, http.MethodGet, "/api/v1/executions/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"COMPLETED":1`)
}

func TestServer_ArchiveActiveWorkflowRejected(t *testing.T) {
	f := newServerFixture(t, false)
	id := f.createWorkflow(t, "Order Flow")
	base := "/api/v1/workflows/" + strconv.FormatInt(id, 10)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, base+"/activate", nil).Code)

	w := f.do(t, http.MethodPost, base+"/archive", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "domain_rule_violation", decodeProblem(t, w)["type"])
}

func TestServer_EngineEventValidation(t *testing.T) {
	f := newServerFixture(t, false)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"unknown event", EngineEventRequest{ProcessInstanceID: "p-1", Event: "paused"}, http.StatusBadRequest},
		{"missing instance", map[string]string{"event": "end"}, http.StatusBadRequest},
		{"unknown instance", EngineEventRequest{ProcessInstanceID: "p-404", Event: "end"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/v1/engine/events", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestServer_UnexpectedErrorIsOpaque(t *testing.T) {
	f := newServerFixture(t, false)
	f.store.FindErr = errors.New("disk on fire at /var/lib/javaflow.db")

	w := f.do(t, http.MethodGet, "/api/v1/executions/1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	p := decodeProblem(t, w)
	assert.Equal(t, "An unexpected error occurred", p["detail"])
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestServer_Users(t *testing.T) {
	f := newServerFixture(t, false)

	w := f.do(t, http.MethodPost, "/api/v1/users", service.CreateUserCommand{Username: "bob", Email: "bob@javaflow.io"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/users", service.CreateUserCommand{Username: "bob", Email: "bob@javaflow.io"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/users/"+strconv.FormatInt(f.user.ID, 10), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")

	f.createWorkflow(t, "Alice Flow")
	w = f.do(t, http.MethodGet, "/api/v1/users/"+strconv.FormatInt(f.user.ID, 10)+"/workflows", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alice Flow")
}

func (f *serverFixture) createBot(t *testing.T) int64 {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/v1/bots", service.CreateBotCommand{
		Name:  "support-bot",
		Type:  "telegram",
		Token: "123456:secret-token",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret-token")

	var resp struct {
		Data service.BotResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.HasToken)
	return resp.Data.ID
}

func TestServer_BotWebhookPublishes(t *testing.T) {
	f := newServerFixture(t, true)
	id := f.createBot(t)

	w := f.do(t, http.MethodPost, "/api/v1/bots/"+strconv.FormatInt(id, 10)+"/webhook",
		InboundWebhookRequest{ChatID: "chat-1", UserID: "u-1", Text: "/help"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	require.Len(t, f.inbound.events, 1)
	evt := f.inbound.events[0]
	assert.Equal(t, event.TypeBotMessageReceived, evt.Type)
	assert.Equal(t, id, evt.GetPayloadInt(event.KeyBotID))
	assert.Equal(t, "/help", evt.GetPayloadString(event.KeyText))
	assert.Empty(t, f.sender.Messages())
}

func TestServer_BotWebhookInline(t *testing.T) {
	f := newServerFixture(t, false)
	id := f.createBot(t)
	path := "/api/v1/bots/" + strconv.FormatInt(id, 10)

	w := f.do(t, http.MethodPost, path+"/webhook", InboundWebhookRequest{ChatID: "chat-1", Text: "hello"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	sent := f.sender.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Message received: hello", sent[0].Text)

	w = f.do(t, http.MethodGet, "/api/v1/messages?chat_id=chat-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs struct {
		Data []service.MessageResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msgs))
	assert.Len(t, msgs.Data, 2)

	w = f.do(t, http.MethodGet, "/api/v1/messages", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_BotWebhookUnknownBot(t *testing.T) {
	f := newServerFixture(t, true)

	w := f.do(t, http.MethodPost, "/api/v1/bots/77/webhook", InboundWebhookRequest{ChatID: "chat-1", Text: "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, f.inbound.events)
}

func TestServer_BotWebhookSecret(t *testing.T) {
	f := newServerFixture(t, true)
	cfg := DefaultServerConfig()
	cfg.WebhookSecret = "s3cret"
	f.server = NewServer(cfg, f.server.deps)

	id := f.createBot(t)
	path := "/api/v1/bots/" + strconv.FormatInt(id, 10) + "/webhook"
	body := InboundWebhookRequest{ChatID: "chat-1", Text: "hi"}

	tests := []struct {
		name    string
		headers []string
		want    int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong", []string{WebhookSecretHeader, "nope"}, http.StatusUnauthorized},
		{"telegram header", []string{TelegramSecretHeader, "s3cret"}, http.StatusAccepted},
		{"generic header", []string{WebhookSecretHeader, "s3cret"}, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, path, body, tt.headers...)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
	assert.Len(t, f.inbound.events, 2)
}

func TestServer_BotLifecycle(t *testing.T) {
	f := newServerFixture(t, false)
	id := f.createBot(t)
	path := "/api/v1/bots/" + strconv.FormatInt(id, 10)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, path+"/deactivate", nil).Code)

	w := f.do(t, http.MethodGet, "/api/v1/bots?active=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "support-bot")

	w = f.do(t, http.MethodGet, "/api/v1/bots?type=telegram", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "support-bot")

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, path, nil).Code)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name      string
		req       pageRequest
		want      []int
		wantPages int
		wantLast  bool
	}{
		{"first page", pageRequest{Page: 0, Size: 2}, []int{1, 2}, 3, false},
		{"last page", pageRequest{Page: 2, Size: 2}, []int{5}, 3, true},
		{"past the end", pageRequest{Page: 9, Size: 2}, []int{}, 3, true},
		{"default size", pageRequest{}, items, 1, true},
		{"size capped", pageRequest{Size: 1000}, items, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paginate(items, tt.req)
			assert.Equal(t, tt.want, got.Content)
			assert.Equal(t, tt.wantPages, got.TotalPages)
			assert.Equal(t, tt.wantLast, got.Last)
			assert.Equal(t, int64(5), got.TotalElements)
		})
	}
}
