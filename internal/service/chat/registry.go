package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zhouzirui/healthdesk/internal/model/assistant"
	"github.com/zhouzirui/healthdesk/internal/model/chat"
)

var (
	ErrProfileRequired = errors.New("profile is required")
	ErrSessionNotFound = errors.New("session not found")
)

// Registry tracks the live widget sessions served by a gateway.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	infos    map[string]chat.SessionInfo
}

// NewRegistry bootstraps an empty in-memory registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		infos:    make(map[string]chat.SessionInfo),
	}
}

// CreateSession provisions a closed session bound to a profile.
func (r *Registry) CreateSession(_ context.Context, profile assistant.Profile, transport Transport, renderer Renderer, opts Options) (*Session, chat.SessionInfo, error) {
	if profile.ID == "" {
		return nil, chat.SessionInfo{}, ErrProfileRequired
	}

	session := NewSession(profile, transport, renderer, opts)
	info := chat.SessionInfo{
		ID:        session.ID(),
		ProfileID: profile.ID,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.sessions[info.ID] = session
	r.infos[info.ID] = info
	r.mu.Unlock()

	return session, info, nil
}

// GetSession retrieves a live session by identifier.
func (r *Registry) GetSession(_ context.Context, sessionID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Info returns the metadata recorded for a session.
func (r *Registry) Info(_ context.Context, sessionID string) (chat.SessionInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[sessionID]
	if !ok {
		return chat.SessionInfo{}, ErrSessionNotFound
	}
	return info, nil
}

// Remove closes the session and forgets it.
func (r *Registry) Remove(_ context.Context, sessionID string) error {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	delete(r.infos, sessionID)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Close()
	return nil
}

// Len reports how many sessions are live.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
