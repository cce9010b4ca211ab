package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adforge/adforge/internal/errors"
	"github.com/adforge/adforge/internal/pipeline"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, 5*time.Second, nil)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestStartPipeline(t *testing.T) {
	var gotPath string
	var gotBody startRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		writeJSON(t, w, http.StatusOK, pipeline.Session{
			ID:     "sess-new",
			Status: pipeline.StageStory,
		})
	})

	sess, err := client.StartPipeline(context.Background(),
		"Create a 30-second ad for eco-friendly water bottle", 30, ModeInteractive)
	if err != nil {
		t.Fatalf("StartPipeline() error = %v", err)
	}

	if gotPath != "/api/pipeline/start" {
		t.Errorf("path = %q, want /api/pipeline/start", gotPath)
	}
	if gotBody.Prompt != "Create a 30-second ad for eco-friendly water bottle" {
		t.Errorf("prompt = %q", gotBody.Prompt)
	}
	if gotBody.TargetDurationSeconds != 30 {
		t.Errorf("target duration = %d, want 30", gotBody.TargetDurationSeconds)
	}
	if gotBody.Mode != "interactive" {
		t.Errorf("mode = %q, want interactive", gotBody.Mode)
	}
	if sess.ID != "sess-new" {
		t.Errorf("session ID = %q, want sess-new", sess.ID)
	}
}

func TestStartPipelineEmptyPrompt(t *testing.T) {
	client := NewHTTPClient("http://unused", time.Second, nil)

	_, err := client.StartPipeline(context.Background(), "", 30, ModeInteractive)
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestStartPipelineDefaultsMode(t *testing.T) {
	var gotBody startRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(t, w, http.StatusOK, pipeline.Session{ID: "s", Status: pipeline.StageStory})
	})

	if _, err := client.StartPipeline(context.Background(), "a prompt", 15, ""); err != nil {
		t.Fatalf("StartPipeline() error = %v", err)
	}
	if gotBody.Mode != ModeInteractive {
		t.Errorf("mode = %q, want %q", gotBody.Mode, ModeInteractive)
	}
}

func TestPostsCarryIdempotencyKey(t *testing.T) {
	var keys []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		writeJSON(t, w, http.StatusOK, pipeline.Session{ID: "s", Status: pipeline.StageStory})
	})

	ctx := context.Background()
	if _, err := client.StartPipeline(ctx, "a prompt", 30, ModeInteractive); err != nil {
		t.Fatalf("StartPipeline() error = %v", err)
	}
	if _, err := client.StartPipeline(ctx, "a prompt", 30, ModeInteractive); err != nil {
		t.Fatalf("StartPipeline() error = %v", err)
	}

	if len(keys) != 2 {
		t.Fatalf("got %d requests, want 2", len(keys))
	}
	for i, key := range keys {
		if _, err := uuid.Parse(key); err != nil {
			t.Errorf("request %d Idempotency-Key = %q, not a UUID: %v", i, key, err)
		}
	}
	if keys[0] == keys[1] {
		t.Error("Idempotency-Key repeated across requests")
	}
}

func TestGetSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/pipeline/sessions/sess-9" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeJSON(t, w, http.StatusOK, pipeline.Session{
			ID:     "sess-9",
			Status: pipeline.StageStoryboard,
			Outputs: pipeline.Outputs{
				Story: &pipeline.StoryOutput{Title: "Eco Bottle", Text: "body"},
			},
		})
	})

	sess, err := client.GetSession(context.Background(), "sess-9")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if sess.Status != pipeline.StageStoryboard {
		t.Errorf("Status = %q, want storyboard", sess.Status)
	}
	if sess.Outputs.Story == nil {
		t.Error("story output missing")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, errorResponse{Error: "no such session"})
	})

	_, err := client.GetSession(context.Background(), "sess-missing")
	if !errors.Is(err, errors.ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestGetSessionMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "{{{not json")
	})

	_, err := client.GetSession(context.Background(), "sess-1")
	if err == nil {
		t.Fatal("expected error for malformed body")
	}
	if errors.IsRetryable(err) {
		t.Error("malformed payload should not be retryable")
	}
}

func TestApproveStage(t *testing.T) {
	var gotPath string
	var gotBody approveRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(t, w, http.StatusOK, approveResponse{NextStage: pipeline.StageReferenceImage})
	})

	next, err := client.ApproveStage(context.Background(), "sess-1",
		pipeline.StageStory, "looks good", nil)
	if err != nil {
		t.Fatalf("ApproveStage() error = %v", err)
	}

	if gotPath != "/api/pipeline/sessions/sess-1/approve" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.Stage != pipeline.StageStory {
		t.Errorf("stage = %q, want story", gotBody.Stage)
	}
	if gotBody.Note != "looks good" {
		t.Errorf("note = %q", gotBody.Note)
	}
	if next != pipeline.StageReferenceImage {
		t.Errorf("next = %q, want reference_image", next)
	}
}

func TestApproveStageSendsSelection(t *testing.T) {
	var raw []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		writeJSON(t, w, http.StatusOK, approveResponse{NextStage: pipeline.StageStoryboard})
	})

	_, err := client.ApproveStage(context.Background(), "sess-1",
		pipeline.StageReferenceImage, "", pipeline.Selection{0, 2})
	if err != nil {
		t.Fatalf("ApproveStage() error = %v", err)
	}

	body := string(raw)
	if !strings.Contains(body, `"selection":[0,2]`) {
		t.Errorf("selection missing from body: %s", body)
	}
}

func TestApproveStageOmitsEmptySelection(t *testing.T) {
	var raw []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		writeJSON(t, w, http.StatusOK, approveResponse{NextStage: pipeline.StageReferenceImage})
	})

	_, err := client.ApproveStage(context.Background(), "sess-1", pipeline.StageStory, "", nil)
	if err != nil {
		t.Fatalf("ApproveStage() error = %v", err)
	}

	if strings.Contains(string(raw), "selection") {
		t.Errorf("empty selection should be omitted: %s", string(raw))
	}
}

func TestApproveStageRejectsUnknownNextStage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"next_stage": "warp_drive"})
	})

	_, err := client.ApproveStage(context.Background(), "sess-1", pipeline.StageStory, "", nil)
	if err == nil {
		t.Fatal("expected error for unknown next stage")
	}
}

func TestRegenerate(t *testing.T) {
	var gotPath string
	var gotBody regenerateRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(t, w, http.StatusOK, map[string]string{"status": "accepted"})
	})

	err := client.Regenerate(context.Background(), "sess-1",
		pipeline.StageReferenceImage, "make image 2 brighter", pipeline.Selection{1})
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}

	if gotPath != "/api/pipeline/sessions/sess-1/regenerate" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.Stage != pipeline.StageReferenceImage {
		t.Errorf("stage = %q", gotBody.Stage)
	}
	if gotBody.Note != "make image 2 brighter" {
		t.Errorf("note = %q", gotBody.Note)
	}
	if len(gotBody.Selection) != 1 || gotBody.Selection[0] != 1 {
		t.Errorf("selection = %v, want [1]", gotBody.Selection)
	}
}

func TestServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadGateway, errorResponse{Error: "upstream down"})
	})

	_, err := client.GetSession(context.Background(), "sess-1")
	if err == nil {
		t.Fatal("expected error for 502")
	}
	if !errors.IsRetryable(err) {
		t.Error("5xx should be retryable")
	}
	if !strings.Contains(err.Error(), "upstream down") {
		t.Errorf("error should carry server message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error should carry status code, got %q", err.Error())
	}
}

func TestClientErrorIsNotRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusConflict, errorResponse{Error: "stage mismatch"})
	})

	_, err := client.ApproveStage(context.Background(), "sess-1", pipeline.StageStory, "", nil)
	if err == nil {
		t.Fatal("expected error for 409")
	}
	if errors.IsRetryable(err) {
		t.Error("4xx should not be retryable")
	}
	if !strings.Contains(err.Error(), "stage mismatch") {
		t.Errorf("error should carry server message, got %q", err.Error())
	}
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetSession(ctx, "sess-1")
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
