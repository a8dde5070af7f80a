package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uniserved/chatwidget/internal/model/chat"
	"github.com/uniserved/chatwidget/internal/model/chatbot"
	"github.com/uniserved/chatwidget/internal/service/answer"
)

type fakeAsker struct {
	calls   atomic.Int32
	release chan struct{}
	answer  string
	err     error
}

func (f *fakeAsker) Ask(ctx context.Context, endpoint, question string) (string, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.answer, f.err
}

var testBot = chatbot.Descriptor{ID: "1", Name: "Test", Endpoint: "http://answers.invalid/api/ask/"}

func noGreeting() Options {
	return Options{GreetingDelay: -1}
}

func newTestSession(t *testing.T, asker answer.Asker, opts Options) *Session {
	t.Helper()
	svc := NewService(asker, opts)
	session, err := svc.CreateSession(context.Background(), testBot)
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func waitIdle(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func texts(snap chat.Snapshot) []string {
	out := make([]string, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		out = append(out, string(m.Origin)+":"+m.Text)
	}
	return out
}

func TestSendSuccessAppendsAnswer(t *testing.T) {
	session := newTestSession(t, &fakeAsker{answer: "Hi there"}, noGreeting())

	msg, err := session.SendText(context.Background(), "Hello")
	require.NoError(t, err)
	require.Equal(t, chat.OriginUser, msg.Origin)
	waitIdle(t, session)

	snap := session.Snapshot()
	require.Equal(t, []string{"user:Hello", "bot:Hi there"}, texts(snap))
	require.Equal(t, chat.StateIdle, snap.State)
	require.NotEqual(t, snap.Messages[0].ID, snap.Messages[1].ID)
	require.NotEmpty(t, snap.Messages[1].SentAt)
}

func TestSendFailureAppendsFallback(t *testing.T) {
	session := newTestSession(t, &fakeAsker{err: errors.New("connection refused")}, noGreeting())

	_, err := session.SendText(context.Background(), "Hello")
	require.NoError(t, err)
	waitIdle(t, session)

	snap := session.Snapshot()
	require.Equal(t, []string{"user:Hello", "bot:" + FallbackReply}, texts(snap))
	require.Equal(t, chat.StateIdle, snap.State)
}

func TestSendAgainstFailingEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewService(answer.NewClient(answer.WithHTTPClient(srv.Client())), noGreeting())
	session, err := svc.CreateSession(context.Background(), chatbot.Descriptor{ID: "1", Endpoint: srv.URL})
	require.NoError(t, err)
	defer session.Close()

	_, err = session.SendText(context.Background(), "Hello")
	require.NoError(t, err)
	waitIdle(t, session)

	require.Equal(t, []string{"user:Hello", "bot:" + FallbackReply}, texts(session.Snapshot()))
}

func TestBlankInputIsIgnored(t *testing.T) {
	asker := &fakeAsker{answer: "unused"}
	session := newTestSession(t, asker, noGreeting())
	require.NoError(t, session.SetInput("draft"))

	for _, input := range []string{"", " ", "\n\t  "} {
		_, err := session.SendText(context.Background(), input)
		require.ErrorIs(t, err, ErrBlankInput)
	}

	snap := session.Snapshot()
	require.Empty(t, snap.Messages)
	require.Equal(t, chat.StateIdle, snap.State)
	require.Equal(t, "draft", snap.PendingInput)
	require.Zero(t, asker.calls.Load())
}

func TestSendWhileAwaitingIsNoop(t *testing.T) {
	asker := &fakeAsker{answer: "first answer", release: make(chan struct{})}
	session := newTestSession(t, asker, noGreeting())

	_, err := session.SendText(context.Background(), "first")
	require.NoError(t, err)
	require.True(t, session.Snapshot().Awaiting())

	_, err = session.SendText(context.Background(), "second")
	require.ErrorIs(t, err, ErrAwaiting)
	require.ErrorIs(t, session.SetInput("typing"), ErrAwaiting)

	snap := session.Snapshot()
	require.Equal(t, []string{"user:first"}, texts(snap))
	require.Empty(t, snap.PendingInput)

	close(asker.release)
	waitIdle(t, session)

	require.Equal(t, []string{"user:first", "bot:first answer"}, texts(session.Snapshot()))
	require.EqualValues(t, 1, asker.calls.Load())
}

func TestSendUsesAndClearsPendingInput(t *testing.T) {
	session := newTestSession(t, &fakeAsker{answer: "ok"}, noGreeting())

	require.NoError(t, session.SetInput("line one\nline two"))
	_, err := session.Send(context.Background())
	require.NoError(t, err)
	require.Empty(t, session.Snapshot().PendingInput)
	waitIdle(t, session)

	require.Equal(t, []string{"user:line one\nline two", "bot:ok"}, texts(session.Snapshot()))
}

func TestRequestOutlivesCallerContext(t *testing.T) {
	asker := &fakeAsker{answer: "late", release: make(chan struct{})}
	session := newTestSession(t, asker, noGreeting())

	ctx, cancel := context.WithCancel(context.Background())
	_, err := session.SendText(ctx, "Hello")
	require.NoError(t, err)
	cancel()
	close(asker.release)
	waitIdle(t, session)

	require.Equal(t, []string{"user:Hello", "bot:late"}, texts(session.Snapshot()))
}

func TestGreetingFiresOnce(t *testing.T) {
	session := newTestSession(t, &fakeAsker{}, Options{GreetingDelay: 10 * time.Millisecond})

	require.Eventually(t, func() bool {
		return len(session.Snapshot().Messages) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	require.Equal(t, []string{"bot:" + DefaultGreeting}, texts(session.Snapshot()))
}

func TestGreetingBeforeFirstSend(t *testing.T) {
	session := newTestSession(t, &fakeAsker{answer: "Hi there"}, Options{GreetingDelay: 5 * time.Millisecond})

	require.Eventually(t, func() bool {
		return len(session.Snapshot().Messages) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := session.SendText(context.Background(), "Hello")
	require.NoError(t, err)
	waitIdle(t, session)

	require.Equal(t, []string{"bot:" + DefaultGreeting, "user:Hello", "bot:Hi there"}, texts(session.Snapshot()))
}

func TestEarlySendCancelsGreeting(t *testing.T) {
	session := newTestSession(t, &fakeAsker{answer: "Hi there"}, Options{GreetingDelay: 40 * time.Millisecond})

	_, err := session.SendText(context.Background(), "Hello")
	require.NoError(t, err)
	waitIdle(t, session)
	time.Sleep(100 * time.Millisecond)

	require.Equal(t, []string{"user:Hello", "bot:Hi there"}, texts(session.Snapshot()))
}

func TestCloseCancelsGreeting(t *testing.T) {
	session := newTestSession(t, &fakeAsker{}, Options{GreetingDelay: 20 * time.Millisecond})

	session.Close()
	time.Sleep(60 * time.Millisecond)

	require.Empty(t, session.Snapshot().Messages)
	_, err := session.SendText(context.Background(), "Hello")
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestCloseWhileAwaitingDiscardsReply(t *testing.T) {
	asker := &fakeAsker{answer: "too late", release: make(chan struct{})}
	session := newTestSession(t, asker, noGreeting())

	_, err := session.SendText(context.Background(), "Hello")
	require.NoError(t, err)
	session.Close()
	close(asker.release)
	waitIdle(t, session)

	require.Equal(t, []string{"user:Hello"}, texts(session.Snapshot()))
}

func TestSubscribeStreamsEventsInOrder(t *testing.T) {
	session := newTestSession(t, &fakeAsker{answer: "Hi there"}, noGreeting())

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	first := <-events
	require.Equal(t, chat.EventSnapshot, first.Type)
	require.NotNil(t, first.Snapshot)
	require.Empty(t, first.Snapshot.Messages)

	_, err := session.SendText(context.Background(), "Hello")
	require.NoError(t, err)

	var got []string
	for len(got) < 4 {
		select {
		case ev := <-events:
			switch ev.Type {
			case chat.EventMessage:
				got = append(got, "message:"+ev.Message.Text)
			case chat.EventState:
				got = append(got, "state:"+string(ev.State))
			}
			require.Equal(t, session.ID(), ev.SessionID)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}

	require.Equal(t, []string{"message:Hello", "state:awaiting", "message:Hi there", "state:idle"}, got)
}

func TestCloseReleasesSubscribers(t *testing.T) {
	session := newTestSession(t, &fakeAsker{}, noGreeting())
	events, unsubscribe := session.Subscribe()
	<-events

	session.Close()

	ev, ok := <-events
	require.True(t, ok)
	require.Equal(t, chat.EventClosed, ev.Type)
	_, ok = <-events
	require.False(t, ok)
	unsubscribe()
}

func TestSnapshotIsACopy(t *testing.T) {
	session := newTestSession(t, &fakeAsker{answer: "a"}, noGreeting())
	_, err := session.SendText(context.Background(), "q")
	require.NoError(t, err)
	waitIdle(t, session)

	snap := session.Snapshot()
	snap.Messages[0].Text = "changed"

	require.Equal(t, "q", session.Snapshot().Messages[0].Text)
}
