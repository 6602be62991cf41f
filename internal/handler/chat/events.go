package chat

import (
	"net/http"
	"sync"
	"time"

	"github.com/zhouzirui/healthdesk/internal/model/chat"
	"github.com/zhouzirui/healthdesk/pkg/utils"
)

// Event names relayed on the session event stream.
const (
	EventSnapshot   = "snapshot"
	EventOpen       = "open"
	EventClose      = "close"
	EventMessage    = "message"
	EventTyping     = "typing"
	EventTypingDone = "typing_done"
	EventError      = "error"
	EventErrorDone  = "error_done"
	EventClear      = "clear"
)

const subscriberBuffer = 32

var heartbeatInterval = 15 * time.Second

type streamEvent struct {
	Name string
	Data interface{}
}

// eventHub fans render calls of one session out to its stream subscribers.
type eventHub struct {
	mu     sync.Mutex
	subs   map[chan streamEvent]struct{}
	closed bool
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[chan streamEvent]struct{})}
}

func (h *eventHub) subscribe() (<-chan streamEvent, func(), bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, false
	}

	ch := make(chan streamEvent, subscriberBuffer)
	h.subs[ch] = struct{}{}
	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
	return ch, unsubscribe, true
}

// publish never blocks the session. A subscriber with a full buffer misses the event.
func (h *eventHub) publish(name string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- streamEvent{Name: name, Data: data}:
		default:
		}
	}
}

func (h *eventHub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// hubRenderer publishes every render call to the hub.
type hubRenderer struct {
	hub *eventHub
}

func (r hubRenderer) SetOpen(open bool) {
	if open {
		r.hub.publish(EventOpen, struct{}{})
		return
	}
	r.hub.publish(EventClose, struct{}{})
}

func (r hubRenderer) RenderMessage(msg chat.Message) {
	r.hub.publish(EventMessage, msg)
}

func (r hubRenderer) ShowTyping(turn uint64) {
	r.hub.publish(EventTyping, map[string]uint64{"turn": turn})
}

func (r hubRenderer) HideTyping(turn uint64) {
	r.hub.publish(EventTypingDone, map[string]uint64{"turn": turn})
}

func (r hubRenderer) ShowError(text string) {
	r.hub.publish(EventError, map[string]string{"text": text})
}

func (r hubRenderer) HideError() {
	r.hub.publish(EventErrorDone, struct{}{})
}

func (r hubRenderer) ClearTranscript() {
	r.hub.publish(EventClear, struct{}{})
}

// handleEvents 以Server-Sent Events推送会话的渲染事件
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	info, session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	hub := h.hub(info.ID)
	if hub == nil {
		utils.RespondError(w, http.StatusNotFound, "session has no event stream")
		return
	}
	events, unsubscribe, ok := hub.subscribe()
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session closed")
		return
	}
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEEvent(w, flusher, EventSnapshot, viewOf(info, session)); err != nil {
		return
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, ev.Name, ev.Data); err != nil {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "ping"); err != nil {
				return
			}
		}
	}
}

func (h *Handler) hub(sessionID string) *eventHub {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hubs[sessionID]
}
