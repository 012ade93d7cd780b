package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pollichat/internal/capabilities"
	"pollichat/internal/domain"
	"pollichat/internal/domain/models"
	"pollichat/internal/gateway"
	"pollichat/internal/middleware"
	"pollichat/internal/service/attach"
	"pollichat/internal/service/chat"
	"pollichat/internal/service/conversation"
	"pollichat/internal/service/extract"
	"pollichat/internal/service/skills"
)

type stubRepo struct {
	conversations map[string]*models.Conversation
}

func newStubRepo() *stubRepo {
	return &stubRepo{conversations: make(map[string]*models.Conversation)}
}

func (r *stubRepo) List(ctx context.Context) ([]models.ConversationSummary, error) {
	summaries := make([]models.ConversationSummary, 0, len(r.conversations))
	for _, c := range r.conversations {
		summaries = append(summaries, models.ConversationSummary{ID: c.ID, Title: c.Title})
	}
	return summaries, nil
}

func (r *stubRepo) Get(ctx context.Context, id string) (*models.Conversation, error) {
	c, ok := r.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (r *stubRepo) CreateOrFind(ctx context.Context, id, title, model string) (*models.Conversation, error) {
	if c, ok := r.conversations[id]; ok {
		return c, nil
	}
	c := &models.Conversation{ID: id, Title: title, Model: model}
	r.conversations[id] = c
	return c, nil
}

func (r *stubRepo) AppendTurn(ctx context.Context, id string, turn models.Turn) error {
	c, ok := r.conversations[id]
	if !ok {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	c.Turns = append(c.Turns, turn)
	return nil
}

func (r *stubRepo) Delete(ctx context.Context, id string) error {
	delete(r.conversations, id)
	return nil
}

type stubGateway struct {
	completion *gateway.Completion
	err        error
}

func (g *stubGateway) Send(ctx context.Context, model string, messages []gateway.Message, credential string) (*gateway.Completion, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.completion, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, data, filename, credential string, key *extract.CacheKey) string {
	return "extracted"
}

func newTestHandler(t *testing.T, repo *stubRepo, gw *stubGateway) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		t.Fatalf("Failed to create capability registry: %v", err)
	}
	skillLoader := skills.NewLoader(filepath.Join(t.TempDir(), "skills"), logger)
	assembler := conversation.NewAssembler(skillLoader, stubExtractor{}, capabilityRegistry, logger)
	normalizer := attach.NewNormalizer(0, logger)
	service := chat.NewService(repo, assembler, gw, normalizer, logger)
	h := NewChatHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", h.SendMessage)
	mux.HandleFunc("GET /chat", h.ListConversations)
	mux.HandleFunc("DELETE /chat", h.DeleteConversation)
	return middleware.APIKey(mux)
}

func TestSendMessage_MissingAPIKey(t *testing.T) {
	handler := newTestHandler(t, newStubRepo(), &stubGateway{})

	body := `{"modelId":"claude-large","turns":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if resp["error"] == "" {
		t.Errorf("expected an error field, got %s", rec.Body.String())
	}
}

func TestSendMessage_Success(t *testing.T) {
	repo := newStubRepo()
	gw := &stubGateway{completion: &gateway.Completion{Content: "Hello!"}}
	handler := newTestHandler(t, repo, gw)

	body := `{"conversationId":"conv-1","modelId":"claude-large","turns":[{"id":"t1","role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("x-api-key", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["content"] != "Hello!" {
		t.Errorf("unexpected content: %v", resp["content"])
	}
	if len(repo.conversations["conv-1"].Turns) != 2 {
		t.Errorf("expected both turns persisted")
	}
}

func TestSendMessage_MultimodalContentAccepted(t *testing.T) {
	gw := &stubGateway{completion: &gateway.Completion{Content: "ok"}}
	handler := newTestHandler(t, newStubRepo(), gw)

	body := `{"modelId":"claude-large","turns":[{"role":"user","content":[{"type":"text","text":"describe"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("x-api-key", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSendMessage_GatewayStatusPassThrough(t *testing.T) {
	gw := &stubGateway{err: &domain.GatewayError{Status: http.StatusPaymentRequired, Body: `{"error":"insufficient balance"}`}}
	handler := newTestHandler(t, newStubRepo(), gw)

	body := `{"modelId":"claude-large","turns":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("x-api-key", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("upstream status not mirrored, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "insufficient balance") {
		t.Errorf("upstream body not surfaced: %s", rec.Body.String())
	}
}

func TestSendMessage_InvalidBody(t *testing.T) {
	handler := newTestHandler(t, newStubRepo(), &stubGateway{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	req.Header.Set("x-api-key", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSendMessage_ValidationError(t *testing.T) {
	handler := newTestHandler(t, newStubRepo(), &stubGateway{})

	// No model id
	body := `{"turns":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("x-api-key", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListConversations_NoKeyRequired(t *testing.T) {
	repo := newStubRepo()
	repo.conversations["conv-1"] = &models.Conversation{ID: "conv-1", Title: "Chat"}
	handler := newTestHandler(t, repo, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summaries []models.ConversationSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != "conv-1" {
		t.Errorf("unexpected summaries: %+v", summaries)
	}
}

func TestDeleteConversation_AlwaysSucceeds(t *testing.T) {
	repo := newStubRepo()
	repo.conversations["conv-1"] = &models.Conversation{ID: "conv-1"}
	handler := newTestHandler(t, repo, &stubGateway{})

	for _, id := range []string{"conv-1", "conv-1", "never-existed"} {
		body := fmt.Sprintf(`{"conversationId":%q}`, id)
		req := httptest.NewRequest(http.MethodDelete, "/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("delete of %q: expected 200, got %d", id, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"success":true`) {
			t.Errorf("delete of %q: unexpected body %s", id, rec.Body.String())
		}
	}
}

func TestDeleteConversation_MissingID(t *testing.T) {
	handler := newTestHandler(t, newStubRepo(), &stubGateway{})

	req := httptest.NewRequest(http.MethodDelete, "/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
