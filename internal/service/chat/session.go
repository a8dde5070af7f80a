package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/uniserved/chatwidget/internal/model/chat"
	"github.com/uniserved/chatwidget/internal/model/chatbot"
	"github.com/uniserved/chatwidget/internal/service/answer"
)

const subscriberBuffer = 32

// Session owns one page load's conversation: the ordered messages, the input
// box and the single in-flight request.
type Session struct {
	id        string
	bot       chatbot.Descriptor
	asker     answer.Asker
	opts      Options
	createdAt time.Time

	mu         sync.Mutex
	messages   []chat.Message
	input      string
	awaiting   bool
	closed     bool
	idle       chan struct{}
	greeting   *time.Timer
	greeted    bool
	lastActive time.Time
	subs       map[int]chan chat.Event
	nextSub    int
}

func newSession(bot chatbot.Descriptor, asker answer.Asker, opts Options) *Session {
	now := opts.now()
	idle := make(chan struct{})
	close(idle)

	s := &Session{
		id:         uuid.NewString(),
		bot:        bot,
		asker:      asker,
		opts:       opts,
		createdAt:  now,
		messages:   make([]chat.Message, 0, 16),
		idle:       idle,
		lastActive: now,
		subs:       make(map[int]chan chat.Event),
	}

	if opts.GreetingDelay >= 0 {
		s.greeting = time.AfterFunc(opts.greetingDelay(), s.deliverGreeting)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Chatbot returns the descriptor the session talks to.
func (s *Session) Chatbot() chatbot.Descriptor {
	return s.bot
}

// SetInput replaces the pending input. The input box is locked while a
// request is in flight.
func (s *Session) SetInput(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.awaiting {
		return ErrAwaiting
	}
	s.input = text
	s.lastActive = s.opts.now()
	return nil
}

// Send submits the pending input.
func (s *Session) Send(ctx context.Context) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendLocked(ctx, s.input)
}

// SendText submits text as if it had been typed into the input box. A
// rejected send leaves the pending input untouched.
func (s *Session) SendText(ctx context.Context, text string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendLocked(ctx, text)
}

func (s *Session) sendLocked(ctx context.Context, question string) (chat.Message, error) {
	if s.closed {
		return chat.Message{}, ErrSessionClosed
	}
	if strings.TrimSpace(question) == "" {
		return chat.Message{}, ErrBlankInput
	}
	if s.awaiting {
		return chat.Message{}, ErrAwaiting
	}

	// The first user message wins over a greeting that has not fired yet.
	s.cancelGreetingLocked()

	msg := s.appendLocked(question, chat.OriginUser)
	s.input = ""
	s.awaiting = true
	s.idle = make(chan struct{})
	s.publishLocked(chat.Event{Type: chat.EventState, State: chat.StateAwaiting})

	go s.request(context.WithoutCancel(ctx), question)
	return msg, nil
}

func (s *Session) request(ctx context.Context, question string) {
	started := time.Now()
	text, err := s.asker.Ask(ctx, s.bot.Endpoint, question)
	if err != nil {
		log.Error().
			Err(err).
			Str("session", s.id).
			Str("chatbot", s.bot.ID).
			Dur("elapsed", time.Since(started)).
			Msg("answer request failed")
		text = FallbackReply
	} else {
		log.Debug().
			Str("session", s.id).
			Str("chatbot", s.bot.ID).
			Int("length", len(text)).
			Dur("elapsed", time.Since(started)).
			Msg("answer received")
	}
	s.complete(text)
}

func (s *Session) complete(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.awaiting = false
	close(s.idle)
	if s.closed {
		return
	}
	s.appendLocked(text, chat.OriginBot)
	s.publishLocked(chat.Event{Type: chat.EventState, State: chat.StateIdle})
}

func (s *Session) deliverGreeting() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.greeted {
		return
	}
	s.greeted = true
	s.greeting = nil
	s.appendLocked(s.opts.greetingText(), chat.OriginBot)
}

func (s *Session) cancelGreetingLocked() {
	if s.greeting != nil {
		s.greeting.Stop()
		s.greeting = nil
	}
	// A timer that already fired may be blocked on s.mu; this keeps it from
	// appending after the user's message.
	s.greeted = true
}

func (s *Session) appendLocked(text string, origin chat.Origin) chat.Message {
	now := s.opts.now()
	msg := chat.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Text:      text,
		Origin:    origin,
		SentAt:    chat.FormatSentAt(now, s.opts.Location),
		CreatedAt: now,
	}
	s.messages = append(s.messages, msg)
	s.lastActive = now
	s.publishLocked(chat.Event{Type: chat.EventMessage, Message: &msg})
	return msg
}

func (s *Session) publishLocked(event chat.Event) {
	event.SessionID = s.id
	for id, ch := range s.subs {
		select {
		case ch <- event:
		default:
			log.Warn().Str("session", s.id).Int("subscriber", id).Str("event", string(event.Type)).Msg("dropping event for slow subscriber")
		}
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() chat.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() chat.Snapshot {
	state := chat.StateIdle
	if s.awaiting {
		state = chat.StateAwaiting
	}
	return chat.Snapshot{
		SessionID:    s.id,
		ChatbotID:    s.bot.ID,
		Messages:     append([]chat.Message(nil), s.messages...),
		PendingInput: s.input,
		State:        state,
		CreatedAt:    s.createdAt,
	}
}

// Subscribe registers for session events. The first event is always a
// snapshot, so nothing published between the call and the first receive is
// lost. The returned func unsubscribes; the channel is closed after the
// session closes or the subscriber leaves.
func (s *Session) Subscribe() (<-chan chat.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan chat.Event, subscriberBuffer)
	snap := s.snapshotLocked()
	ch <- chat.Event{Type: chat.EventSnapshot, SessionID: s.id, Snapshot: &snap}

	if s.closed {
		ch <- chat.Event{Type: chat.EventClosed, SessionID: s.id}
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.lastActive = s.opts.now()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
			s.lastActive = s.opts.now()
		})
	}
}

// Wait blocks until no request is in flight or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the greeting timer and releases subscribers. A request still in
// flight runs to completion but its reply is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.cancelGreetingLocked()
	s.publishLocked(chat.Event{Type: chat.EventClosed})
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// expired reports whether the session has been unattended for longer than ttl.
func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) == 0 && !s.awaiting && now.Sub(s.lastActive) > ttl
}
