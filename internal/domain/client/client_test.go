package client

import (
	"errors"
	"testing"

	"origination-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewClient(t *testing.T) {
	t.Run("should create a client with normalized fields", func(t *testing.T) {
		c, err := NewClient("  Jane ", " Doe ", " Jane.Doe@Example.COM ", " 555-0101 ", 720)
		assert.NoError(t, err)
		assert.NotNil(t, c)
		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.Equal(t, "Jane", c.FirstName)
		assert.Equal(t, "Doe", c.LastName)
		assert.Equal(t, "jane.doe@example.com", c.Email)
		assert.Equal(t, "555-0101", c.Phone)
		assert.Equal(t, 720, c.CreditScore)
		assert.False(t, c.CreatedAt.IsZero())
		assert.Equal(t, c.CreatedAt, c.UpdatedAt)
	})

	t.Run("should reject empty first name", func(t *testing.T) {
		_, err := NewClient("  ", "Doe", "jane@example.com", "", 720)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("should reject empty last name", func(t *testing.T) {
		_, err := NewClient("Jane", "", "jane@example.com", "", 720)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("should reject malformed email", func(t *testing.T) {
		_, err := NewClient("Jane", "Doe", "not-an-email", "", 720)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("should reject credit score above range", func(t *testing.T) {
		c, err := NewClient("Jane", "Doe", "jane@example.com", "", 900)
		assert.Nil(t, c)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		var ve *apperrors.ValidationError
		assert.True(t, errors.As(err, &ve))
		assert.Equal(t, "creditScore", ve.Field)
	})

	t.Run("should reject credit score below range", func(t *testing.T) {
		_, err := NewClient("Jane", "Doe", "jane@example.com", "", 299)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}

func TestValidateCreditScore(t *testing.T) {
	tests := []struct {
		name    string
		score   int
		wantErr bool
	}{
		{"lower bound is valid", 300, false},
		{"upper bound is valid", 850, false},
		{"mid range is valid", 640, false},
		{"below range fails", 299, true},
		{"above range fails", 851, true},
		{"zero fails", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreditScore(tt.score)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFullName(t *testing.T) {
	c := &Client{FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "Jane Doe", c.FullName())
}
