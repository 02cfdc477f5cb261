package services

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInsufficientBalance    = errors.New("insufficient wallet balance")
	ErrTutorNotFound          = errors.New("tutor not found")
	ErrTutorNotBookable       = errors.New("tutor is not available for booking")
	ErrChatNotStarted         = errors.New("session chat has not started yet")
	ErrChatEnded              = errors.New("session chat has ended")
	ErrChatClosed             = errors.New("session chat is closed")
	ErrMessageBlocked         = errors.New("message blocked")
	ErrFilterUnavailable      = errors.New("content filter unavailable, try again")
	ErrPaymentNotSuccessful   = errors.New("payment was not successful")
	ErrPaymentMismatch        = errors.New("payment does not match booking")
	ErrGatewayFailure         = errors.New("payment gateway request failed")
	ErrAlreadySettled         = errors.New("session already settled")
	ErrPayoutFailed           = errors.New("payout failed")
	ErrDuplicateReview        = errors.New("session already reviewed")
	ErrSessionNotFinished     = errors.New("session has not finished")
	ErrMissingPayoutDetails   = errors.New("payout details are incomplete")
	ErrQuizCooldown           = errors.New("quiz retake not yet allowed")
	ErrQuizNotEligible        = errors.New("quiz not available for this account")
	ErrBelowMinimum           = errors.New("amount below minimum withdrawal")
	ErrDuplicate              = errors.New("already exists")
)

// InsufficientBalanceError carries the shortfall of a wallet operation.
type InsufficientBalanceError struct {
	Required  int64
	Available int64
}

func (e *InsufficientBalanceError) Shortfall() int64 {
	if e.Available >= e.Required {
		return 0
	}
	return e.Required - e.Available
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: need %d more", e.Shortfall())
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

type BlockedMessageError struct {
	Reason string
}

func (e *BlockedMessageError) Error() string {
	return e.Reason
}

func (e *BlockedMessageError) Unwrap() error {
	return ErrMessageBlocked
}
