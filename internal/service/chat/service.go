package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/uniserved/chatwidget/internal/model/chatbot"
	"github.com/uniserved/chatwidget/internal/service/answer"
)

const (
	// DefaultGreeting is injected once, shortly after a session starts.
	DefaultGreeting = "Hello! How can I help you today?"
	// FallbackReply replaces any failed answer request.
	FallbackReply = "Sorry, I encountered an error. Please try again."
	// DefaultGreetingDelay is used when Options.GreetingDelay is zero.
	DefaultGreetingDelay = 2 * time.Second
)

var (
	ErrBlankInput       = errors.New("input is blank")
	ErrAwaiting         = errors.New("a response is already pending")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session closed")
	ErrEndpointRequired = errors.New("chatbot endpoint is required")
)

// Options tunes every session created by a Service.
type Options struct {
	// GreetingDelay of zero means DefaultGreetingDelay; negative disables the greeting.
	GreetingDelay time.Duration
	Greeting      string
	Location      *time.Location
	Now           func() time.Time
}

func (o Options) greetingDelay() time.Duration {
	if o.GreetingDelay == 0 {
		return DefaultGreetingDelay
	}
	return o.GreetingDelay
}

func (o Options) greetingText() string {
	if o.Greeting == "" {
		return DefaultGreeting
	}
	return o.Greeting
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Service keeps the live sessions, one per page load.
type Service struct {
	asker answer.Asker
	opts  Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService bootstraps the in-memory session registry.
func NewService(asker answer.Asker, opts Options) *Service {
	return &Service{
		asker:    asker,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// CreateSession starts a session bound to bot and schedules its greeting.
func (s *Service) CreateSession(_ context.Context, bot chatbot.Descriptor) (*Session, error) {
	if bot.Endpoint == "" {
		return nil, ErrEndpointRequired
	}

	session := newSession(bot, s.asker, s.opts)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	log.Info().Str("session", session.ID()).Str("chatbot", bot.ID).Msg("session created")
	return session, nil
}

// GetSession retrieves a live session.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// CloseSession tears a session down and forgets it.
func (s *Service) CloseSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Close()
	log.Info().Str("session", sessionID).Msg("session closed")
	return nil
}

// Reap closes sessions that have had no subscriber, request or input for
// longer than ttl, and returns how many were removed.
func (s *Service) Reap(ttl time.Duration) int {
	now := s.opts.now()

	s.mu.Lock()
	var stale []*Session
	for id, session := range s.sessions {
		if session.expired(now, ttl) {
			stale = append(stale, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range stale {
		session.Close()
	}
	if len(stale) > 0 {
		log.Info().Int("count", len(stale)).Msg("reaped idle sessions")
	}
	return len(stale)
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown closes every session.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
