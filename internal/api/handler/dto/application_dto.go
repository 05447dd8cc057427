package dto

import (
	"fmt"
	"time"

	"origination-engine/internal/domain/application"
	"origination-engine/internal/domain/client"

	"github.com/shopspring/decimal"
)

type SubmitApplicationRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	CreditScore int    `json:"creditScore"`
	Amount      string `json:"amount"`
	TermMonths  int    `json:"termMonths"`
	Purpose     string `json:"purpose,omitempty"`
}

func (r *SubmitApplicationRequest) Validate() error {
	if r.FirstName == "" {
		return fmt.Errorf("firstName is required")
	}
	if r.LastName == "" {
		return fmt.Errorf("lastName is required")
	}
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil || r.Amount == "" {
		return fmt.Errorf("invalid amount format: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	if r.TermMonths <= 0 {
		return fmt.Errorf("termMonths must be positive")
	}
	return nil
}

// AmountFloat returns the requested amount as a float. Validate must have
// accepted the request first.
func (r *SubmitApplicationRequest) AmountFloat() float64 {
	amount, _ := decimal.NewFromString(r.Amount)
	f, _ := amount.Float64()
	return f
}

type ApplicationResponse struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"clientId"`
	Amount         string     `json:"amount"`
	TermMonths     int        `json:"termMonths"`
	Purpose        string     `json:"purpose,omitempty"`
	Status         string     `json:"status"`
	DecisionReason *string    `json:"decisionReason,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DecidedAt      *time.Time `json:"decidedAt,omitempty"`
}

type ClientResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	CreditScore int       `json:"creditScore"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

func NewApplicationResponse(app *application.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:             app.ID.String(),
		ClientID:       app.ClientID.String(),
		Amount:         decimal.NewFromFloat(app.Amount).StringFixed(2),
		TermMonths:     app.TermMonths,
		Purpose:        app.Purpose,
		Status:         string(app.Status),
		DecisionReason: app.DecisionReason,
		CreatedAt:      app.CreatedAt,
		UpdatedAt:      app.UpdatedAt,
		DecidedAt:      app.DecidedAt,
	}
}

func NewClientResponse(c *client.Client) ClientResponse {
	return ClientResponse{
		ID:          c.ID.String(),
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		CreditScore: c.CreditScore,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
