// Package api provides HTTP handlers for the ShopBot API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopbot-labs/shopbot/internal/catalog"
	"github.com/shopbot-labs/shopbot/internal/chat"
	"github.com/shopbot-labs/shopbot/internal/domain"
	"github.com/shopbot-labs/shopbot/internal/llm"
	"github.com/shopbot-labs/shopbot/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// SessionHeaderName carries the widget's session identifier. Absent
// means the default session.
const SessionHeaderName = "X-Session-ID"

// maxRequestBodySize is the maximum allowed request body size (1MB).
const maxRequestBodySize = 1 << 20

// ChatService is the dialogue surface the handlers depend on.
type ChatService interface {
	InitSession(ctx context.Context, sessionID string) (string, error)
	HandleMessage(ctx context.Context, sessionID, message string) (*chat.Reply, error)
}

// Handler serves the chat widget endpoints.
type Handler struct {
	svc      ChatService
	sessions *chat.SessionManager
	repo     store.Repository
}

// NewHandler creates a new Handler.
func NewHandler(svc ChatService, sessions *chat.SessionManager, repo store.Repository) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		repo:     repo,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RegisterRoutes registers the chat widget routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/adduser", h.HandleAddUser)
	r.Post("/ini", h.HandleInit)
	r.Post("/predict", h.HandlePredict)
}

func sessionID(r *http.Request) string {
	if id := r.Header.Get(SessionHeaderName); id != "" {
		return id
	}
	return chat.DefaultSessionID
}

type addUserRequest struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// HandleAddUser handles POST /adduser. The widget expects the literal
// string "incomplete" when either field is empty and the ack "none"
// otherwise.
func (h *Handler) HandleAddUser(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req addUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.User) == 0 || len(req.Pass) == 0 {
		JSON(w, http.StatusOK, "incomplete")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Pass), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	if err := h.repo.CreateUser(r.Context(), &domain.User{
		Username:     req.User,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}); err != nil {
		slog.Error("failed to persist user", "username", req.User, "error", err)
		Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	h.sessions.SetUsername(sessionID(r), req.User)
	slog.Info("user registered", "username", req.User, "session_id", sessionID(r))

	JSON(w, http.StatusOK, "none")
}

type initResponse struct {
	Answer string `json:"answer"`
}

// HandleInit handles POST /ini: (re)generates the session catalog and
// conversation and returns the welcome message.
func (h *Handler) HandleInit(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)

	answer, err := h.svc.InitSession(r.Context(), sid)
	if err != nil {
		slog.Error("session initialization failed", "session_id", sid, "error", err)
		Error(w, statusFor(err), "initialization failed")
		return
	}

	JSON(w, http.StatusOK, initResponse{Answer: answer})
}

type predictRequest struct {
	Message string `json:"message"`
}

type predictResponse struct {
	Answer   string `json:"answer"`
	FileName string `json:"file_name"`
}

// HandlePredict handles POST /predict: one chat turn.
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.svc.HandleMessage(r.Context(), sid, req.Message)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("chat turn failed", "session_id", sid, "error", err)
		} else {
			slog.Info("chat turn rejected", "session_id", sid, "error", err)
		}
		Error(w, status, errorMessage(err))
		return
	}

	JSON(w, http.StatusOK, predictResponse{Answer: reply.Answer, FileName: reply.ImagePath})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrInputMissing):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrSessionNotInitialized):
		return http.StatusConflict
	case errors.Is(err, llm.ErrProviderTimedOut),
		errors.Is(err, llm.ErrProviderFailed),
		errors.Is(err, llm.ErrMissingToolInvocation),
		errors.Is(err, catalog.ErrCatalogParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrInputMissing):
		return "message is required"
	case errors.Is(err, chat.ErrSessionNotInitialized):
		return "session not initialized"
	default:
		return "chat request failed"
	}
}
