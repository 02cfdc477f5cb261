package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/hireveno/hireveno-back/internal/repository"
)

type deviceRegistry interface {
	Upsert(ctx context.Context, userID uuid.UUID, token string, deviceType *string) (*models.Device, error)
}

type appealStore interface {
	Create(ctx context.Context, input repository.CreateAppealInput) (*models.Appeal, error)
	List(ctx context.Context, userID *uuid.UUID, status string) ([]models.Appeal, error)
	Respond(ctx context.Context, id uuid.UUID, status models.AppealStatus, response string) (*models.Appeal, error)
}

// AccountService covers the signed-in user's own profile, devices and appeals.
type AccountService struct {
	users   userReader
	devices deviceRegistry
	appeals appealStore
}

func NewAccountService(users userReader, devices deviceRegistry, appeals appealStore) *AccountService {
	return &AccountService{users: users, devices: devices, appeals: appeals}
}

func (s *AccountService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.users.GetByID(ctx, actor.ID)
}

func (s *AccountService) RegisterDevice(
	ctx context.Context,
	actor models.Actor,
	token string,
	deviceType *string,
) (*models.Device, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidInput
	}
	return s.devices.Upsert(ctx, actor.ID, token, trimmedOrNil(deviceType))
}

type CreateAppealInput struct {
	Type        string
	Subject     string
	Description string
}

// CreateAppeal is open to blocked users too, so it is routed outside the status check.
func (s *AccountService) CreateAppeal(
	ctx context.Context,
	actor models.Actor,
	input CreateAppealInput,
) (*models.Appeal, error) {
	appealType := strings.TrimSpace(input.Type)
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if appealType == "" || subject == "" || description == "" {
		return nil, ErrInvalidInput
	}
	return s.appeals.Create(ctx, repository.CreateAppealInput{
		UserID:      actor.ID,
		Type:        appealType,
		Subject:     subject,
		Description: description,
	})
}

func (s *AccountService) ListAppeals(ctx context.Context, actor models.Actor) ([]models.Appeal, error) {
	userID := actor.ID
	return s.appeals.List(ctx, &userID, "")
}
