package client

import (
	"fmt"
	"strings"
	"time"

	"origination-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
)

const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

type Client struct {
	ID          uuid.UUID `json:"clientId"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	CreditScore int       `json:"creditScore"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewClient(firstName, lastName, email, phone string, creditScore int) (*Client, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)

	if firstName == "" {
		return nil, apperrors.NewValidationError("firstName", "cannot be empty")
	}
	if lastName == "" {
		return nil, apperrors.NewValidationError("lastName", "cannot be empty")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("email", "must be a valid email address")
	}
	if err := ValidateCreditScore(creditScore); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Client{
		ID:          uuid.New(),
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		Phone:       phone,
		CreditScore: creditScore,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func ValidateCreditScore(score int) error {
	if score < MinCreditScore || score > MaxCreditScore {
		return apperrors.NewValidationError("creditScore",
			fmt.Sprintf("must be between %d and %d", MinCreditScore, MaxCreditScore))
	}
	return nil
}

func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}
