package application

import (
	"time"

	"origination-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
)

type Status string

const (
	StatusSubmitted  Status = "SUBMITTED"
	StatusProcessing Status = "PROCESSING"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
)

// CanTransitionTo reports whether the move is one the state machine allows.
// Terminal states have no outgoing transitions.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusSubmitted:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusApproved || next == StatusRejected
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusProcessing, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type Application struct {
	ID             uuid.UUID
	ClientID       uuid.UUID
	Amount         float64
	TermMonths     int
	Purpose        string
	Status         Status
	DecisionReason *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DecidedAt      *time.Time
}

// NewApplication builds a SUBMITTED application. Amount, term and purpose
// are immutable after creation; only the status fields change later.
func NewApplication(clientID uuid.UUID, amount float64, termMonths int, purpose string) (*Application, error) {
	if amount <= 0 {
		return nil, apperrors.NewValidationError("amount", "must be greater than zero")
	}
	if termMonths <= 0 {
		return nil, apperrors.NewValidationError("termMonths", "must be greater than zero")
	}

	now := time.Now()
	return &Application{
		ID:         uuid.New(),
		ClientID:   clientID,
		Amount:     amount,
		TermMonths: termMonths,
		Purpose:    purpose,
		Status:     StatusSubmitted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
