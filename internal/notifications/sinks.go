package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"github.com/rs/zerolog"
)

// MultiSink fans a notification out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, notification models.Notification) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Deliver(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type deviceTokens interface {
	TokensForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type expoPublisher interface {
	Publish(message *expo.PushMessage) (expo.PushResponse, error)
}

// ExpoSink sends notifications as Expo push messages to the user's registered devices.
type ExpoSink struct {
	devices deviceTokens
	client  expoPublisher
	logger  zerolog.Logger
}

func NewExpoSink(devices deviceTokens, logger zerolog.Logger) *ExpoSink {
	return &ExpoSink{
		devices: devices,
		client:  expo.NewPushClient(nil),
		logger:  logger,
	}
}

func (s *ExpoSink) Deliver(ctx context.Context, notification models.Notification) error {
	tokens, err := s.devices.TokensForUser(ctx, notification.UserID)
	if err != nil {
		return fmt.Errorf("load device tokens: %w", err)
	}

	validTokens := make([]expo.ExponentPushToken, 0, len(tokens))
	for _, token := range tokens {
		pushToken, err := expo.NewExponentPushToken(token)
		if err != nil {
			s.logger.Debug().Str("user_id", notification.UserID.String()).Msg("skipping malformed push token")
			continue
		}
		validTokens = append(validTokens, pushToken)
	}
	if len(validTokens) == 0 {
		return nil
	}

	response, err := s.client.Publish(&expo.PushMessage{
		To:       validTokens,
		Title:    "Hireveno",
		Body:     notification.Message,
		Sound:    "default",
		Priority: expo.DefaultPriority,
		Data: map[string]string{
			"type":       notification.Type,
			"link":       notification.Link,
			"session_id": notification.SessionID.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("publish push: %w", err)
	}
	if err := response.ValidateResponse(); err != nil {
		return fmt.Errorf("push rejected: %w", err)
	}
	return nil
}
