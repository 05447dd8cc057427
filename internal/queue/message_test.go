package queue

import (
	"testing"

	"origination-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewApplicationSubmittedMessage(t *testing.T) {
	appID := uuid.New()

	msg, err := NewApplicationSubmittedMessage(appID)

	assert.NoError(t, err)
	assert.Equal(t, TypeApplicationSubmitted, msg.TypeName)
	assert.Equal(t, uuid.Nil, msg.ConversationID)

	decoded, err := DecodeApplicationSubmittedBody(msg.Body)
	assert.NoError(t, err)
	assert.Equal(t, appID, decoded.ApplicationID)
}

func TestNewConversationEndMessage(t *testing.T) {
	msg := NewConversationEndMessage()

	assert.Equal(t, TypeConversationEnd, msg.TypeName)
	assert.Empty(t, msg.Body)
}

func TestDecodeApplicationSubmittedBody(t *testing.T) {
	testCases := []struct {
		name string
		body []byte
	}{
		{name: "Not JSON", body: []byte("definitely not json")},
		{name: "Empty body", body: nil},
		{name: "Wrong shape", body: []byte(`{"applicationId": 42}`)},
		{name: "Missing application ID", body: []byte(`{}`)},
		{name: "Nil application ID", body: []byte(`{"applicationId":"00000000-0000-0000-0000-000000000000"}`)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeApplicationSubmittedBody(tc.body)

			assert.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUnrecognizedMessage)
		})
	}
}
