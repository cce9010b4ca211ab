// Package backend implements the HTTP client for the pipeline service.
// It exposes the four request/response operations the coordinator needs:
// starting a pipeline, fetching the full session snapshot, approving a
// stage, and requesting a regeneration. Feedback messages do not go over
// HTTP; they travel on the realtime channel.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/adforge/adforge/internal/errors"
	"github.com/adforge/adforge/internal/logging"
	"github.com/adforge/adforge/internal/pipeline"
)

// Pipeline execution modes accepted by StartPipeline.
const (
	ModeInteractive = "interactive"
	ModeExpress     = "express"
)

// Client is the interface the coordinator uses to talk to the pipeline
// service. Implementations must be safe for concurrent use.
type Client interface {
	// StartPipeline creates a new session from a prompt and returns the
	// initial session snapshot.
	StartPipeline(ctx context.Context, prompt string, targetDuration int, mode string) (*pipeline.Session, error)
	// GetSession fetches the full authoritative session snapshot.
	GetSession(ctx context.Context, sessionID string) (*pipeline.Session, error)
	// ApproveStage approves the given stage and returns the stage the
	// pipeline advances to.
	ApproveStage(ctx context.Context, sessionID string, stage pipeline.Stage, note string, selection pipeline.Selection) (pipeline.Stage, error)
	// Regenerate requests a fresh result for the given stage. The session
	// stays on the same stage.
	Regenerate(ctx context.Context, sessionID string, stage pipeline.Stage, note string, selection pipeline.Selection) error
}

type startRequest struct {
	Prompt                string `json:"prompt"`
	TargetDurationSeconds int    `json:"target_duration_seconds"`
	Mode                  string `json:"mode"`
}

type approveRequest struct {
	Stage     pipeline.Stage     `json:"stage"`
	Note      string             `json:"note,omitempty"`
	Selection pipeline.Selection `json:"selection,omitempty"`
}

type approveResponse struct {
	NextStage pipeline.Stage `json:"next_stage"`
}

type regenerateRequest struct {
	Stage     pipeline.Stage     `json:"stage"`
	Note      string             `json:"note,omitempty"`
	Selection pipeline.Selection `json:"selection,omitempty"`
}

// errorResponse is the error body shape the pipeline service returns.
type errorResponse struct {
	Error string `json:"error"`
}

// HTTPClient is the production Client backed by net/http.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

// NewHTTPClient creates an HTTPClient for the given base URL. The timeout
// applies per request.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *logging.Logger) *HTTPClient {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// StartPipeline creates a new pipeline session.
func (c *HTTPClient) StartPipeline(ctx context.Context, prompt string, targetDuration int, mode string) (*pipeline.Session, error) {
	if prompt == "" {
		return nil, errors.NewValidationError("prompt cannot be empty").WithField("prompt")
	}
	if mode == "" {
		mode = ModeInteractive
	}

	body := startRequest{
		Prompt:                prompt,
		TargetDurationSeconds: targetDuration,
		Mode:                  mode,
	}

	var sess pipeline.Session
	if err := c.post(ctx, "startPipeline", "/api/pipeline/start", body, &sess); err != nil {
		return nil, err
	}

	c.logger.Info("pipeline started", "session_id", sess.ID, "mode", mode)
	return &sess, nil
}

// GetSession fetches the full session snapshot.
func (c *HTTPClient) GetSession(ctx context.Context, sessionID string) (*pipeline.Session, error) {
	url := fmt.Sprintf("%s/api/pipeline/sessions/%s", c.baseURL, sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewBackendError("session fetch failed", err).
			WithOperation("getSession")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NewNotFoundError("session", sessionID).
			WithCause(errors.ErrSessionNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("getSession", resp)
	}

	var sess pipeline.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, errors.NewBackendError("malformed session payload", err).
			WithOperation("getSession").
			WithRetryable(false)
	}
	return &sess, nil
}

// ApproveStage approves a stage and returns the next stage.
func (c *HTTPClient) ApproveStage(ctx context.Context, sessionID string, stage pipeline.Stage, note string, selection pipeline.Selection) (pipeline.Stage, error) {
	body := approveRequest{Stage: stage, Note: note, Selection: selection}
	path := fmt.Sprintf("/api/pipeline/sessions/%s/approve", sessionID)

	var out approveResponse
	if err := c.post(ctx, "approveStage", path, body, &out); err != nil {
		return "", err
	}
	if !out.NextStage.Valid() {
		return "", errors.NewBackendError("approve returned unknown stage", nil).
			WithOperation("approveStage").
			WithRetryable(false)
	}

	c.logger.Info("stage approved",
		"session_id", sessionID, "stage", string(stage), "next_stage", string(out.NextStage))
	return out.NextStage, nil
}

// Regenerate requests a fresh result for the stage.
func (c *HTTPClient) Regenerate(ctx context.Context, sessionID string, stage pipeline.Stage, note string, selection pipeline.Selection) error {
	body := regenerateRequest{Stage: stage, Note: note, Selection: selection}
	path := fmt.Sprintf("/api/pipeline/sessions/%s/regenerate", sessionID)

	if err := c.post(ctx, "regenerate", path, body, nil); err != nil {
		return err
	}

	c.logger.Info("regeneration requested", "session_id", sessionID, "stage", string(stage))
	return nil
}

// post issues a JSON POST and decodes the response into out when out is
// non-nil. Every POST carries a fresh idempotency key so the service can
// drop duplicates delivered by retrying proxies.
func (c *HTTPClient) post(ctx context.Context, operation, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.NewBackendError("request failed", err).
			WithOperation(operation)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.NewNotFoundError("session", "").
			WithCause(errors.ErrSessionNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(operation, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewBackendError("malformed response payload", err).
			WithOperation(operation).
			WithRetryable(false)
	}
	return nil
}

// statusError converts a non-2xx response into a BackendError, pulling the
// service's error message out of the body when present. Client errors
// (4xx) are not retryable; server errors (5xx) are.
func (c *HTTPClient) statusError(operation string, resp *http.Response) error {
	msg := "request rejected"
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		var body errorResponse
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			msg = body.Error
		}
	}

	retryable := resp.StatusCode >= 500
	return errors.NewBackendError(msg, nil).
		WithOperation(operation).
		WithStatusCode(resp.StatusCode).
		WithRetryable(retryable)
}
