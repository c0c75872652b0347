package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
)

// RESTConfig configures the REST engine client
type RESTConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// RESTEngine talks to a Flowable-compatible REST API
type RESTEngine struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	logger   *zap.Logger
}

// NewRESTEngine creates a REST engine client
func NewRESTEngine(cfg RESTConfig, logger *zap.Logger) *RESTEngine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTEngine{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With(zap.String("component", "rest_engine")),
	}
}

type deploymentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type restVariable struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

type startInstanceRequest struct {
	ProcessDefinitionKey string         `json:"processDefinitionKey"`
	Variables            []restVariable `json:"variables,omitempty"`
}

type instanceResponse struct {
	ID string `json:"id"`
}

func (e *RESTEngine) Deploy(ctx context.Context, name, resourceName, definition string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", resourceName)
	if err != nil {
		return "", fmt.Errorf("failed to build deployment body: %w", err)
	}
	if _, err := io.WriteString(part, definition); err != nil {
		return "", fmt.Errorf("failed to build deployment body: %w", err)
	}
	if err := mw.WriteField("deploymentName", name); err != nil {
		return "", fmt.Errorf("failed to build deployment body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build deployment body: %w", err)
	}

	var out deploymentResponse
	if err := e.do(ctx, http.MethodPost, "/repository/deployments", mw.FormDataContentType(), &body, &out); err != nil {
		return "", fmt.Errorf("deploy %s: %w", resourceName, err)
	}

	e.logger.Info("Process deployed", zap.String("deployment_id", out.ID), zap.String("name", name))
	return out.ID, nil
}

func (e *RESTEngine) StartInstance(ctx context.Context, processKey string, variables map[string]interface{}) (string, error) {
	req := startInstanceRequest{ProcessDefinitionKey: processKey}
	for k, v := range variables {
		req.Variables = append(req.Variables, restVariable{Name: k, Value: v})
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal start request: %w", err)
	}

	var out instanceResponse
	if err := e.do(ctx, http.MethodPost, "/runtime/process-instances", "application/json", bytes.NewReader(payload), &out); err != nil {
		return "", fmt.Errorf("start instance of %s: %w", processKey, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("start instance of %s: engine returned no instance id", processKey)
	}

	e.logger.Info("Process instance started", zap.String("instance_id", out.ID), zap.String("process_key", processKey))
	return out.ID, nil
}

func (e *RESTEngine) DeleteInstance(ctx context.Context, instanceID, reason string) error {
	path := "/runtime/process-instances/" + url.PathEscape(instanceID) + "?deleteReason=" + url.QueryEscape(reason)
	if err := e.do(ctx, http.MethodDelete, path, "", nil, nil); err != nil {
		return fmt.Errorf("delete instance %s: %w", instanceID, err)
	}
	return nil
}

func (e *RESTEngine) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if e.username != "" {
		req.SetBasicAuth(e.username, e.password)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode engine response: %w", err)
	}
	return nil
}

var _ port.ProcessEngine = (*RESTEngine)(nil)
