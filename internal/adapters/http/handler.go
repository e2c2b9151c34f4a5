package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PabloGalante/vetra-proxy/internal/app/conversation"
	"github.com/PabloGalante/vetra-proxy/internal/domain"
	"github.com/PabloGalante/vetra-proxy/internal/observability"
)

// Credentials is the single shared administrator login.
type Credentials struct {
	Username string
	Password string
}

type Server struct {
	svc   *conversation.Service
	admin Credentials
}

func NewServer(svc *conversation.Service, admin Credentials) http.Handler {
	s := &Server{svc: svc, admin: admin}

	r := chi.NewRouter()
	r.Use(withRequestID, withLogging, withCORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/chat", s.handleChat)

	r.Get("/", handleChatPage)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFiles)))

	r.Group(func(r chi.Router) {
		r.Use(withBasicAuth(admin))

		r.Get("/admin", s.handleAdminPanel)

		r.Get("/api/rules", s.handleListRules)
		r.Post("/api/rules", s.handleAddRule)
		r.Delete("/api/rules/{index}", s.handleDeleteRule)

		r.Get("/api/model", s.handleGetModel)
		r.Post("/api/model", s.handleSetModel)

		r.Get("/api/chats", s.handleListChats)
		r.Get("/api/chats/{id}", s.handleGetChat)

		r.Get("/api/moderation/events", s.handleModerationEvents)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatRequest struct {
	Message string `json:"message"`
	ChatID  string `json:"chat_id,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
	ChatID   string `json:"chat_id"`
	Model    string `json:"model"`
}

type ruleRequest struct {
	Rule string `json:"rule"`
}

type rulesResponse struct {
	Status string   `json:"status,omitempty"`
	Rules  []string `json:"rules"`
}

type modelRequest struct {
	Model string `json:"model"`
}

type modelResponse struct {
	Status string   `json:"status,omitempty"`
	Model  string   `json:"model"`
	Models []string `json:"models,omitempty"`
}

type chatsResponse struct {
	Chats []string `json:"chats"`
}

type historyResponse struct {
	History []domain.Message `json:"history"`
}

type moderationEventsResponse struct {
	Events []*domain.BlockedAttempt `json:"events"`
}

// ─────────────────────────────────────────────
// Chat
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeDetail(w, http.StatusBadRequest, "message is required")
		return
	}

	out, err := s.svc.SendMessage(r.Context(), conversation.SendMessageInput{
		ConversationID: domain.ConversationID(req.ChatID),
		Text:           req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response: out.Reply,
		ChatID:   string(out.ConversationID),
		Model:    out.Model,
	})
}

// ─────────────────────────────────────────────
// Administration
// ─────────────────────────────────────────────

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rulesResponse{Rules: s.svc.ListRules(r.Context())})
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rules, err := s.svc.AddRule(r.Context(), req.Rule)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rulesResponse{Status: "success", Rules: rules})
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "rule index must be an integer")
		return
	}

	rules, err := s.svc.RemoveRule(r.Context(), index)
	if errors.Is(err, domain.ErrRuleOutOfRange) {
		writeDetail(w, http.StatusNotFound, "Rule not found")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rulesResponse{Status: "success", Rules: rules})
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, modelResponse{
		Model:  s.svc.CurrentModel(),
		Models: s.svc.Models(),
	})
}

func (s *Server) handleSetModel(w http.ResponseWriter, r *http.Request) {
	var req modelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.SetModel(r.Context(), req.Model); err != nil {
		if errors.Is(err, domain.ErrInvalidModel) {
			writeDetail(w, http.StatusBadRequest, "Invalid model")
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, modelResponse{Status: "success", Model: req.Model})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	ids := s.svc.ListConversations(r.Context())
	chats := make([]string, 0, len(ids))
	for _, id := range ids {
		chats = append(chats, string(id))
	}
	writeJSON(w, http.StatusOK, chatsResponse{Chats: chats})
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	id := domain.ConversationID(chi.URLParam(r, "id"))

	history, err := s.svc.GetConversation(r.Context(), id)
	if domain.IsNotFound(err) {
		writeDetail(w, http.StatusNotFound, "Chat not found")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{History: history})
}

func (s *Server) handleModerationEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeDetail(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	events, err := s.svc.BlockedAttempts(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, moderationEventsResponse{Events: events})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// decodeJSON reads a bounded JSON body into v. On failure it has already
// written the error response.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeDetail(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeDetail(w, http.StatusBadRequest, "invalid JSON body")
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps a service error onto a status code. Unexpected errors
// are logged and answered with a generic body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		writeDetail(w, http.StatusNotFound, err.Error())
	default:
		observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
	}
}
