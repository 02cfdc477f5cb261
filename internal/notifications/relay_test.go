package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/events"
	"github.com/hireveno/hireveno-back/internal/models"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"github.com/rs/zerolog"
)

var (
	learnerID = uuid.MustParse("5a6b7c8d-9e0f-4a1b-8c2d-3e4f5a6b7c01")
	tutorID   = uuid.MustParse("6b7c8d9e-0f1a-4b2c-9d3e-4f5a6b7c8d02")
	sessionID = uuid.MustParse("7c8d9e0f-1a2b-4c3d-8e4f-5a6b7c8d9e03")
	eventTime = time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
)

type stubSessions struct {
	session *models.Session
	err     error
}

func (s *stubSessions) GetByID(_ context.Context, _ uuid.UUID) (*models.Session, error) {
	return s.session, s.err
}

type stubUsers struct {
	names map[uuid.UUID]string
}

func (s *stubUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	name, ok := s.names[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &models.User{ID: id, Name: name}, nil
}

type recordingSink struct {
	delivered []models.Notification
	err       error
}

func (s *recordingSink) Deliver(_ context.Context, notification models.Notification) error {
	s.delivered = append(s.delivered, notification)
	return s.err
}

type recordingLive struct {
	recipients []uuid.UUID
	messages   []*models.ChatMessage
}

func (s *recordingLive) DeliverMessage(_ context.Context, recipients []uuid.UUID, message *models.ChatMessage) error {
	s.recipients = append(s.recipients, recipients...)
	s.messages = append(s.messages, message)
	return nil
}

func testSession(status models.SessionStatus) *models.Session {
	return &models.Session{
		ID:          sessionID,
		ClientID:    learnerID,
		StudentID:   tutorID,
		Duration:    60,
		ScheduledAt: eventTime,
		Status:      status,
	}
}

func newTestRelay(sink Sink, live MessageSink) *Relay {
	return NewRelay(
		events.NewMemoryBus(4),
		&stubSessions{session: testSession(models.SessionConfirmed)},
		&stubUsers{names: map[uuid.UUID]string{learnerID: "Ada", tutorID: "Tolu"}},
		sink,
		live,
		zerolog.Nop(),
	)
}

func TestBuildMessageNotifiesOnlyTheOtherParty(t *testing.T) {
	relay := newTestRelay(&recordingSink{}, nil)
	message := &models.ChatMessage{ID: uuid.New(), SessionID: sessionID, SenderID: learnerID, Message: "biology question"}

	built, err := relay.Build(context.Background(), events.NewMessageCreated(testSession(models.SessionConfirmed), message, eventTime))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(built) != 1 {
		t.Fatalf("expected one notification, got %d", len(built))
	}
	if built[0].UserID != tutorID || built[0].Message != "New message from Ada" || built[0].Link != "/chat/"+sessionID.String() {
		t.Fatalf("unexpected notification %+v", built[0])
	}
}

func TestBuildStatusChanges(t *testing.T) {
	cases := []struct {
		name     string
		status   models.SessionStatus
		wantLen  int
		wantText map[uuid.UUID]string
	}{
		{
			name:     "confirmed",
			status:   models.SessionConfirmed,
			wantLen:  2,
			wantText: map[uuid.UUID]string{learnerID: textConfirmed, tutorID: textConfirmed},
		},
		{
			name:     "cancelled",
			status:   models.SessionCancelled,
			wantLen:  2,
			wantText: map[uuid.UUID]string{learnerID: textCancelled, tutorID: textCancelled},
		},
		{
			name:     "completed",
			status:   models.SessionCompleted,
			wantLen:  2,
			wantText: map[uuid.UUID]string{learnerID: textReviewPrompt, tutorID: textCompleted},
		},
		{
			name:    "pending",
			status:  models.SessionPending,
			wantLen: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			relay := newTestRelay(&recordingSink{}, nil)
			event := events.NewStatusChanged(testSession(tc.status), models.SessionConfirmed, nil, eventTime)

			built, err := relay.Build(context.Background(), event)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if len(built) != tc.wantLen {
				t.Fatalf("expected %d notifications, got %d", tc.wantLen, len(built))
			}
			for _, notification := range built {
				if notification.Message != tc.wantText[notification.UserID] {
					t.Fatalf("unexpected text for %s: %q", notification.UserID, notification.Message)
				}
				if !notification.CreatedAt.Equal(eventTime) {
					t.Fatalf("expected event time, got %s", notification.CreatedAt)
				}
			}
		})
	}
}

func TestBuildCompletedLinksLearnerToReview(t *testing.T) {
	relay := newTestRelay(&recordingSink{}, nil)
	built, err := relay.Build(context.Background(), events.NewStatusChanged(testSession(models.SessionCompleted), models.SessionConfirmed, nil, eventTime))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, notification := range built {
		if notification.UserID == learnerID && (notification.Type != "review" || notification.Link != "/rating-review/"+sessionID.String()) {
			t.Fatalf("unexpected learner notification %+v", notification)
		}
	}
}

func TestBuildSessionCreatedNotifiesTutor(t *testing.T) {
	relay := newTestRelay(&recordingSink{}, nil)
	built, err := relay.Build(context.Background(), events.NewSessionCreated(testSession(models.SessionConfirmed), eventTime))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(built) != 1 || built[0].UserID != tutorID || built[0].Message != "New session booked by Ada" {
		t.Fatalf("unexpected notifications %+v", built)
	}
}

func TestBuildFallsBackToStoredSession(t *testing.T) {
	sessions := &stubSessions{session: testSession(models.SessionCancelled)}
	relay := NewRelay(events.NewMemoryBus(1), sessions, &stubUsers{}, &recordingSink{}, nil, zerolog.Nop())

	built, err := relay.Build(context.Background(), events.Event{
		Type:       events.SessionStatusChanged,
		SessionID:  sessionID,
		NewStatus:  models.SessionCancelled,
		OccurredAt: eventTime,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(built) != 2 {
		t.Fatalf("expected two notifications, got %d", len(built))
	}

	sessions.session, sessions.err = nil, errors.New("db down")
	if _, err := relay.Build(context.Background(), events.Event{Type: events.SessionStatusChanged, SessionID: sessionID}); err == nil {
		t.Fatal("expected lookup error")
	}
}

func TestHandleDeliversLiveMessageAndNotification(t *testing.T) {
	sink := &recordingSink{err: errors.New("push down")}
	live := &recordingLive{}
	relay := newTestRelay(sink, live)
	message := &models.ChatMessage{ID: uuid.New(), SessionID: sessionID, SenderID: tutorID, Message: "See you at 4pm for biology"}

	relay.Handle(context.Background(), events.NewMessageCreated(testSession(models.SessionConfirmed), message, eventTime))

	if len(live.messages) != 1 || len(live.recipients) != 2 {
		t.Fatalf("expected live delivery to both parties, got %d recipients", len(live.recipients))
	}
	if len(sink.delivered) != 1 || sink.delivered[0].UserID != learnerID {
		t.Fatalf("expected one notification for the learner, got %+v", sink.delivered)
	}
}

func TestRunConsumesBusUntilCancelled(t *testing.T) {
	bus := events.NewMemoryBus(4)
	sink := &recordingSink{}
	relay := NewRelay(bus, &stubSessions{}, &stubUsers{}, sink, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- relay.Run(ctx)
	}()

	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("relay did not stop after the bus closed")
	}
	cancel()
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	first := &recordingSink{err: errors.New("socket gone")}
	second := &recordingSink{}

	err := MultiSink{first, second}.Deliver(context.Background(), models.Notification{UserID: learnerID})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(first.delivered) != 1 || len(second.delivered) != 1 {
		t.Fatal("expected every sink to be tried")
	}
}

type stubTokens struct {
	tokens []string
}

func (s *stubTokens) TokensForUser(_ context.Context, _ uuid.UUID) ([]string, error) {
	return s.tokens, nil
}

type stubExpo struct {
	messages []*expo.PushMessage
	response expo.PushResponse
}

func (s *stubExpo) Publish(message *expo.PushMessage) (expo.PushResponse, error) {
	s.messages = append(s.messages, message)
	return s.response, nil
}

func TestExpoSinkSkipsMalformedTokens(t *testing.T) {
	client := &stubExpo{response: expo.PushResponse{Status: "ok"}}
	sink := &ExpoSink{
		devices: &stubTokens{tokens: []string{"not-a-token", "ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]"}},
		client:  client,
		logger:  zerolog.Nop(),
	}

	err := sink.Deliver(context.Background(), models.Notification{UserID: learnerID, Type: "session", Message: textConfirmed, SessionID: sessionID})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(client.messages) != 1 || len(client.messages[0].To) != 1 {
		t.Fatalf("expected one push to one token, got %+v", client.messages)
	}
	if client.messages[0].Data["session_id"] != sessionID.String() {
		t.Fatalf("unexpected data %+v", client.messages[0].Data)
	}
}

func TestExpoSinkNoTokensIsNoop(t *testing.T) {
	client := &stubExpo{}
	sink := &ExpoSink{devices: &stubTokens{}, client: client, logger: zerolog.Nop()}

	if err := sink.Deliver(context.Background(), models.Notification{UserID: learnerID}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(client.messages) != 0 {
		t.Fatal("expected no push without tokens")
	}
}
