package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/healthdesk/internal/model/chat"
	chatservice "github.com/zhouzirui/healthdesk/internal/service/chat"
	"github.com/zhouzirui/healthdesk/internal/view"
)

// Event types pushed to the widget.
const (
	EventConnected  = "connected"
	EventOpen       = "open"
	EventClose      = "close"
	EventMessage    = "message"
	EventTyping     = "typing"
	EventTypingDone = "typing_done"
	EventError      = "error"
	EventErrorDone  = "error_done"
	EventClear      = "clear"
	EventNotice     = "notice"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 54 * time.Second
	sendBuffer   = 64
)

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// TextMessage 用户输入或快捷回复
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// MessageEvent carries a rendered transcript row.
type MessageEvent struct {
	Sender chat.Sender `json:"sender"`
	Text   string      `json:"text"`
	HTML   string      `json:"html"`
}

// TypingEvent identifies the typing placeholder of one turn.
type TypingEvent struct {
	Turn uint64 `json:"turn"`
	ID   string `json:"id"`
	HTML string `json:"html,omitempty"`
}

// peer owns the outbound side of one websocket connection. Events are queued
// and written by writeLoop, so renderer calls made under the session lock never
// wait on the network. A client that lets the queue fill up is disconnected.
type peer struct {
	conn   *websocket.Conn
	logger *zap.Logger

	out        chan outgoingMessage
	flush      chan struct{}
	done       chan struct{}
	writerDone chan struct{}
	flushOnce  sync.Once
	stopOnce   sync.Once
}

func newPeer(conn *websocket.Conn, logger *zap.Logger) *peer {
	return &peer{
		conn:       conn,
		logger:     logger,
		out:        make(chan outgoingMessage, sendBuffer),
		flush:      make(chan struct{}),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

func (p *peer) send(msg outgoingMessage) {
	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.out <- msg:
	default:
		p.logger.Warn("client is not reading, dropping connection", zap.String("type", msg.Type))
		p.stop()
	}
}

// writeLoop is the only goroutine writing data frames to the connection.
func (p *peer) writeLoop() {
	defer close(p.writerDone)

	for {
		select {
		case msg := <-p.out:
			if !p.write(msg) {
				return
			}
		case <-p.flush:
			for {
				select {
				case msg := <-p.out:
					if !p.write(msg) {
						return
					}
				default:
					return
				}
			}
		case <-p.done:
			return
		}
	}
}

func (p *peer) write(msg outgoingMessage) bool {
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := p.conn.WriteJSON(msg); err != nil {
		p.logger.Debug("write event failed", zap.String("type", msg.Type), zap.Error(err))
		p.stop()
		return false
	}
	return true
}

// close writes what is still queued, then closes the connection.
func (p *peer) close() {
	p.flushOnce.Do(func() { close(p.flush) })
	<-p.writerDone
	p.stop()
}

func (p *peer) stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}

// ping may run concurrently with writeLoop; control frames are safe to
// interleave with data writes.
func (p *peer) ping() error {
	return p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (p *peer) notice(sessionID, message string) {
	p.send(outgoingMessage{
		Type:      EventNotice,
		SessionID: sessionID,
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	})
}

// socketRenderer pushes every render call to the widget as an event.
type socketRenderer struct {
	peer      *peer
	sessionID string
	avatar    string
}

func (r *socketRenderer) emit(typ string, data interface{}) {
	r.peer.send(outgoingMessage{
		Type:      typ,
		SessionID: r.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (r *socketRenderer) SetOpen(open bool) {
	if open {
		r.emit(EventOpen, nil)
		return
	}
	r.emit(EventClose, nil)
}

func (r *socketRenderer) RenderMessage(msg chat.Message) {
	r.emit(EventMessage, MessageEvent{Sender: msg.Sender, Text: msg.Text, HTML: view.MessageHTML(msg, r.avatar)})
}

func (r *socketRenderer) ShowTyping(turn uint64) {
	r.emit(EventTyping, TypingEvent{Turn: turn, ID: view.TypingID, HTML: view.TypingHTML(r.avatar)})
}

func (r *socketRenderer) HideTyping(turn uint64) {
	r.emit(EventTypingDone, TypingEvent{Turn: turn, ID: view.TypingID})
}

func (r *socketRenderer) ShowError(text string) {
	r.emit(EventError, MessageEvent{Sender: chat.SenderBot, Text: text, HTML: view.ErrorHTML(text, r.avatar)})
}

func (r *socketRenderer) HideError() {
	r.emit(EventErrorDone, map[string]string{"id": view.ErrorID})
}

func (r *socketRenderer) ClearTranscript() {
	r.emit(EventClear, nil)
}

// handleWebSocket 处理助手WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.profiles.FindByID(chi.URLParam(r, "profileID"))
	if !ok {
		http.Error(w, "assistant not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	p := newPeer(conn, h.logger)
	go p.writeLoop()

	renderer := &socketRenderer{peer: p, avatar: avatarURL(profile)}
	session, info, err := h.registry.CreateSession(r.Context(), profile, h.transport, renderer, h.opts)
	if err != nil {
		p.notice("", err.Error())
		p.close()
		return
	}
	renderer.sessionID = info.ID
	logger := h.logger.With(zap.String("session", info.ID), zap.String("profile", profile.ID))
	logger.Info("assistant connection opened")

	ctx, cancel := context.WithCancel(r.Context())
	var turns sync.WaitGroup
	defer func() {
		cancel()
		_ = h.registry.Remove(context.Background(), info.ID)
		turns.Wait()
		p.close()
		logger.Info("assistant connection closed")
	}()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go pingLoop(ctx, p)

	p.send(outgoingMessage{
		Type:      EventConnected,
		SessionID: info.ID,
		Data:      map[string]any{"profile": profile},
		Timestamp: time.Now().Unix(),
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != info.ID {
			p.notice(info.ID, "session mismatch")
			continue
		}

		h.handleMessage(ctx, &turns, p, session, logger, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, turns *sync.WaitGroup, p *peer, session *chatservice.Session, logger *zap.Logger, msg *inboundMessage) {
	switch msg.Type {
	case "open":
		session.Open()
	case "close":
		session.Close()
	case "submit", "quick_reply":
		var text TextMessage
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &text); err != nil {
				p.notice(session.ID(), "invalid text payload")
				return
			}
		}

		submit := session.Submit
		if msg.Type == "quick_reply" {
			submit = session.QuickReply
		}

		// off the read loop so a close sent mid-turn is seen immediately
		turns.Add(1)
		go func() {
			defer turns.Done()
			h.reportSubmit(p, session, logger, submit(ctx, text.Text))
		}()
	default:
		p.notice(session.ID(), "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) reportSubmit(p *peer, session *chatservice.Session, logger *zap.Logger, err error) {
	switch {
	case err == nil:
	case errors.Is(err, chatservice.ErrTurnInFlight):
		p.notice(session.ID(), "please wait for the current reply")
	case errors.Is(err, chatservice.ErrSessionClosed):
		p.notice(session.ID(), "open the assistant before sending a message")
	case errors.Is(err, chatservice.ErrStaleTurn), errors.Is(err, context.Canceled):
		logger.Debug("turn abandoned", zap.Error(err))
	default:
		logger.Warn("submit failed", zap.Error(err))
	}
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, p *peer) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.ping(); err != nil {
				return
			}
		}
	}
}

var _ chatservice.Renderer = (*socketRenderer)(nil)
