package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/zhouzirui/healthdesk/internal/model/assistant"
	"github.com/zhouzirui/healthdesk/internal/model/chat"
)

var (
	ErrSessionClosed = errors.New("session is closed")
	ErrTurnInFlight  = errors.New("a turn is already awaiting a response")
	// ErrStaleTurn is returned when the session was reopened, reset or closed
	// while the turn was queued or in flight; the turn left no trace.
	ErrStaleTurn = errors.New("turn belongs to a previous session generation")
)

// Options configures a Session.
type Options struct {
	Policy         OverlapPolicy
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// EntryKind distinguishes persisted history from transient transcript rows.
type EntryKind string

const (
	EntryHistory EntryKind = "history"
	EntryTyping  EntryKind = "typing"
	EntryError   EntryKind = "error"
)

// Entry is one row of the visible transcript.
type Entry struct {
	Kind    EntryKind    `json:"kind"`
	Message chat.Message `json:"message"`
}

// Session is a single assistant conversation bound to one widget. Methods may
// be called from concurrent callbacks; renderer calls are made while the
// session lock is held so the view never observes a half-applied transition.
type Session struct {
	id        string
	profile   assistant.Profile
	transport Transport
	renderer  Renderer
	policy    OverlapPolicy
	timeout   time.Duration
	logger    *zap.Logger
	turns     *semaphore.Weighted

	mu         sync.Mutex
	state      State
	generation uint64
	genCtx     context.Context
	cancelGen  context.CancelFunc
	history    []chat.Message
	inflight   int
	turnSeq    uint64
	lastError  string
}

// NewSession creates a closed session. Call Open to show the greeting.
func NewSession(profile assistant.Profile, transport Transport, renderer Renderer, opts Options) *Session {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := opts.Policy
	if policy == "" {
		policy = PolicyQueue
	}

	id := uuid.NewString()
	genCtx, cancelGen := context.WithCancel(context.Background())
	return &Session{
		id:        id,
		profile:   profile,
		transport: transport,
		renderer:  renderer,
		policy:    policy,
		timeout:   opts.RequestTimeout,
		logger:    logger.With(zap.String("session", id), zap.String("profile", profile.ID)),
		turns:     semaphore.NewWeighted(1),
		state:     StateClosed,
		genCtx:    genCtx,
		cancelGen: cancelGen,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Profile returns the assistant profile the session greets with.
func (s *Session) Profile() assistant.Profile { return s.profile }

// Policy returns the configured overlap policy.
func (s *Session) Policy() OverlapPolicy { return s.policy }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation returns the counter bumped by every open, reset and close.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// History returns a copy of the conversation history.
func (s *Session) History() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chat.CloneHistory(s.history)
}

// Transcript returns what the view shows: the history followed by the typing
// placeholder while a turn is in flight and the error notice from the last
// failure until the next turn starts or a reply lands.
func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.history)+2)
	for _, msg := range s.history {
		entries = append(entries, Entry{Kind: EntryHistory, Message: msg})
	}
	if s.inflight > 0 {
		entries = append(entries, Entry{Kind: EntryTyping, Message: chat.BotMessage("")})
	}
	if s.lastError != "" {
		entries = append(entries, Entry{Kind: EntryError, Message: chat.BotMessage(s.lastError)})
	}
	return entries
}

// Open shows the modal and starts a fresh conversation with the greeting.
// No request is made.
func (s *Session) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.renderer.SetOpen(true)
	s.greetLocked(EventOpen)
	s.logger.Debug("assistant opened")
}

// Close hides the modal and discards the conversation. Responses still in
// flight are ignored when they arrive.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state, _ = Transition(s.state, EventClose)
	s.bumpGenerationLocked()
	s.history = nil
	s.inflight = 0
	s.lastError = ""
	s.renderer.ClearTranscript()
	s.renderer.SetOpen(false)
	s.logger.Debug("assistant closed", zap.Uint64("generation", s.generation))
}

// QuickReply submits one of the profile's preset replies.
func (s *Session) QuickReply(ctx context.Context, value string) error {
	return s.Submit(ctx, value)
}

// Submit runs one user turn. Blank text is ignored. Text containing the reset
// phrase restarts the conversation locally. Otherwise a single request is sent
// carrying the prior history and the new message; a failure shows the
// profile's error text without touching the history and is not returned.
func (s *Session) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if s.profile.WantsReset(text) {
		return s.reset(text)
	}

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	if s.policy == PolicyQueue {
		if err := s.turns.Acquire(ctx, 1); err != nil {
			return err
		}
		defer s.turns.Release(1)
	}

	turn, prior, genCtx, err := s.beginTurn(gen, text)
	if err != nil {
		return err
	}

	// abandon the request as soon as its generation ends
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(genCtx, cancel)
	defer stop()
	if s.timeout > 0 {
		var cancelTimeout context.CancelFunc
		reqCtx, cancelTimeout = context.WithTimeout(reqCtx, s.timeout)
		defer cancelTimeout()
	}

	started := time.Now()
	resp, exchangeErr := s.transport.Exchange(reqCtx, chat.Request{Message: text, History: prior})

	return s.finishTurn(gen, turn, resp, exchangeErr, time.Since(started))
}

func (s *Session) reset(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsOpen() {
		return ErrSessionClosed
	}
	s.renderer.RenderMessage(chat.UserMessage(text))
	s.greetLocked(EventReset)
	s.logger.Debug("assessment restarted", zap.Uint64("generation", s.generation))
	return nil
}

func (s *Session) beginTurn(gen uint64, text string) (uint64, []chat.Message, context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return 0, nil, nil, ErrStaleTurn
	}
	if !s.state.IsOpen() {
		return 0, nil, nil, ErrSessionClosed
	}
	if s.policy == PolicyDrop && s.inflight > 0 {
		return 0, nil, nil, ErrTurnInFlight
	}

	next, err := Transition(s.state, EventSubmit)
	if err != nil {
		return 0, nil, nil, err
	}

	s.hideErrorLocked()

	user := chat.UserMessage(text)
	prior := chat.CloneHistory(s.history)
	if prior == nil {
		prior = []chat.Message{}
	}

	s.state = next
	s.history = append(s.history, user)
	s.inflight++
	s.turnSeq++
	turn := s.turnSeq

	s.renderer.RenderMessage(user)
	s.renderer.ShowTyping(turn)
	return turn, prior, s.genCtx, nil
}

func (s *Session) finishTurn(gen, turn uint64, resp chat.Response, exchangeErr error, elapsed time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("discarding stale response",
			zap.Uint64("turn", turn),
			zap.Uint64("request_generation", gen),
			zap.Uint64("generation", s.generation),
		)
		return ErrStaleTurn
	}

	s.inflight--
	s.renderer.HideTyping(turn)

	if exchangeErr != nil {
		s.logger.Warn("assistant exchange failed",
			zap.Uint64("turn", turn),
			zap.Duration("elapsed", elapsed),
			zap.Error(exchangeErr),
		)
		s.hideErrorLocked()
		s.lastError = s.profile.ErrorText
		s.renderer.ShowError(s.profile.ErrorText)
		s.settleLocked(EventFail)
		return nil
	}

	bot := chat.BotMessage(resp.Response)
	s.history = append(s.history, bot)
	if resp.History != nil {
		s.history = chat.CloneHistory(resp.History)
	}
	s.hideErrorLocked()
	s.renderer.RenderMessage(bot)
	s.settleLocked(EventReply)

	s.logger.Debug("assistant replied",
		zap.Uint64("turn", turn),
		zap.Duration("elapsed", elapsed),
		zap.Int("history", len(s.history)),
	)
	return nil
}

// settleLocked leaves AwaitingResponse only once no other turn is in flight.
func (s *Session) settleLocked(ev Event) {
	if s.inflight > 0 {
		return
	}
	next, err := Transition(s.state, ev)
	if err != nil {
		s.logger.Error("unexpected transition", zap.Error(err))
		return
	}
	s.state = next
}

func (s *Session) greetLocked(ev Event) {
	next, err := Transition(s.state, ev)
	if err != nil {
		s.logger.Error("unexpected transition", zap.Error(err))
		return
	}

	greeting := chat.BotMessage(s.profile.Greeting)
	s.state = next
	s.bumpGenerationLocked()
	s.history = []chat.Message{greeting}
	s.inflight = 0
	s.lastError = ""

	s.renderer.ClearTranscript()
	s.renderer.RenderMessage(greeting)
}

// hideErrorLocked removes the error notice from the view, if one is shown.
// At most one notice is ever visible.
func (s *Session) hideErrorLocked() {
	if s.lastError == "" {
		return
	}
	s.lastError = ""
	s.renderer.HideError()
}

// bumpGenerationLocked ends the current generation and cancels its requests.
func (s *Session) bumpGenerationLocked() {
	s.cancelGen()
	s.generation++
	s.genCtx, s.cancelGen = context.WithCancel(context.Background())
}
