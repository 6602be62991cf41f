package assistant

import (
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/healthdesk/internal/model/assistant"
	chatservice "github.com/zhouzirui/healthdesk/internal/service/chat"
	"github.com/zhouzirui/healthdesk/pkg/utils"
)

// AssetPrefix is where the widget serves avatar images from.
const AssetPrefix = "/static"

// Handler 健康助手的HTTP与WebSocket处理器
type Handler struct {
	profiles  assistant.Store
	registry  *chatservice.Registry
	transport chatservice.Transport
	opts      chatservice.Options
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

// New 创建助手处理器。每条WebSocket连接对应一个会话，请求经 transport 发往助手接口。
func New(profiles assistant.Store, registry *chatservice.Registry, transport chatservice.Transport, opts chatservice.Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		profiles:  profiles,
		registry:  registry,
		transport: transport,
		opts:      opts,
		logger:    logger.Named("assistant_ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册助手相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/assistants", h.handleListProfiles)
	r.Get("/assistants/{profileID}", h.handleGetProfile)
	r.Get("/ws/assistant/{profileID}", h.handleWebSocket)
}

// handleListProfiles 列出所有助手配置
func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.profiles.List())
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.profiles.FindByID(chi.URLParam(r, "profileID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "assistant not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile)
}

func avatarURL(profile assistant.Profile) string {
	if profile.Avatar == "" {
		return ""
	}
	return path.Join(AssetPrefix, profile.Avatar)
}
