package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/healthdesk/internal/model/assistant"
	"github.com/zhouzirui/healthdesk/internal/model/chat"
	chatService "github.com/zhouzirui/healthdesk/internal/service/chat"
	"github.com/zhouzirui/healthdesk/pkg/utils"
)

// Handler 聊天会话的REST处理器，供无法使用WebSocket的客户端轮询对话
type Handler struct {
	registry  *chatService.Registry
	profiles  assistant.Store
	transport chatService.Transport
	opts      chatService.Options

	mu   sync.Mutex
	hubs map[string]*eventHub
}

// New 创建聊天处理器
func New(registry *chatService.Registry, profiles assistant.Store, transport chatService.Transport, opts chatService.Options) *Handler {
	return &Handler{
		registry:  registry,
		profiles:  profiles,
		transport: transport,
		opts:      opts,
		hubs:      make(map[string]*eventHub),
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/sessions", h.handleCreateSession)
	r.Get("/chat/sessions/{sessionID}", h.handleGetSession)
	r.Get("/chat/sessions/{sessionID}/events", h.handleEvents)
	r.Post("/chat/sessions/{sessionID}/messages", h.handleSubmit)
	r.Post("/chat/sessions/{sessionID}/open", h.handleOpen)
	r.Delete("/chat/sessions/{sessionID}", h.handleDelete)
}

// SessionView is the polled state of a conversation.
type SessionView struct {
	Session    chat.SessionInfo    `json:"session"`
	State      string              `json:"state"`
	Generation uint64              `json:"generation"`
	Transcript []chatService.Entry `json:"transcript"`
}

// handleCreateSession 创建会话并显示问候语
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProfileID string `json:"profileId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.ProfileID == "" {
		payload.ProfileID = assistant.DefaultProfileID
	}

	profile, ok := h.profiles.FindByID(payload.ProfileID)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "assistant not found")
		return
	}

	hub := newEventHub()
	session, info, err := h.registry.CreateSession(r.Context(), profile, h.transport, hubRenderer{hub: hub}, h.opts)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.mu.Lock()
	h.hubs[info.ID] = hub
	h.mu.Unlock()
	session.Open()

	utils.RespondJSON(w, http.StatusCreated, viewOf(info, session))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, viewOf(info, session))
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	info, session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	session.Open()
	utils.RespondJSON(w, http.StatusOK, viewOf(info, session))
}

// handleSubmit 发送一条用户消息并等待回复
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	info, session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := session.Submit(r.Context(), payload.Text)
	switch {
	case err == nil, errors.Is(err, chatService.ErrStaleTurn):
		utils.RespondJSON(w, http.StatusOK, viewOf(info, session))
	case errors.Is(err, chatService.ErrTurnInFlight), errors.Is(err, chatService.ErrSessionClosed):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.registry.Remove(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.mu.Lock()
	hub := h.hubs[sessionID]
	delete(h.hubs, sessionID)
	h.mu.Unlock()
	if hub != nil {
		hub.shutdown()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (chat.SessionInfo, *chatService.Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.registry.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return chat.SessionInfo{}, nil, false
	}
	info, err := h.registry.Info(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return chat.SessionInfo{}, nil, false
	}
	return info, session, true
}

func viewOf(info chat.SessionInfo, session *chatService.Session) SessionView {
	return SessionView{
		Session:    info,
		State:      session.State().String(),
		Generation: session.Generation(),
		Transcript: session.Transcript(),
	}
}
