package handler

import (
	"log/slog"
	"net/http"

	"pollichat/internal/domain/models"
	"pollichat/internal/httputil"
	"pollichat/internal/service/attach"
	"pollichat/internal/service/chat"
)

// ChatHandler handles chat HTTP requests.
// Handlers only communicate with services, never repositories.
type ChatHandler struct {
	chatService *chat.Service
	logger      *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *chat.Service, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

type turnPayload struct {
	ID      string         `json:"id,omitempty"`
	Role    string         `json:"role"`
	Content models.Content `json:"content"`
}

type attachmentPayload struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Data string `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

type sendChatRequest struct {
	ConversationID    string              `json:"conversationId,omitempty"`
	ConversationTitle string              `json:"conversationTitle,omitempty"`
	ModelID           string              `json:"modelId"`
	Turns             []turnPayload       `json:"turns"`
	Attachments       []attachmentPayload `json:"attachments,omitempty"`
}

// SendMessage forwards one turn to the model gateway and persists the result
// POST /chat
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	credential := httputil.GetAPIKey(r)
	if credential == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "API key missing")
		return
	}

	var req sendChatRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	turns := make([]models.Turn, len(req.Turns))
	for i, t := range req.Turns {
		turns[i] = models.Turn{ID: t.ID, Role: t.Role, Content: t.Content}
	}

	files := make([]attach.Incoming, len(req.Attachments))
	for i, a := range req.Attachments {
		files[i] = attach.Incoming{Kind: a.Kind, Name: a.Name, Data: a.Data, URL: a.URL}
	}

	resp, err := h.chatService.SendMessage(r.Context(), &chat.SendRequest{
		ConversationID:    req.ConversationID,
		ConversationTitle: req.ConversationTitle,
		ModelID:           req.ModelID,
		Turns:             turns,
		Attachments:       files,
		Credential:        credential,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// ListConversations returns conversation summaries sorted by recency
// GET /chat
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.chatService.ListConversations(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, summaries)
}

type deleteChatRequest struct {
	ConversationID string `json:"conversationId"`
}

// DeleteConversation removes a whole conversation record; deleting an absent
// record still succeeds
// DELETE /chat
func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	var req deleteChatRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.chatService.DeleteConversation(r.Context(), req.ConversationID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
