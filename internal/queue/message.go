package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"origination-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
)

// Wire type names. Anything else is treated as unrecognized and dropped
// after a warning.
const (
	TypeApplicationSubmitted = "loan.application.submitted"
	TypeConversationEnd      = "queue.conversation.end"
)

type Message struct {
	ConversationID uuid.UUID `json:"conversationId"`
	TypeName       string    `json:"typeName"`
	Body           []byte    `json:"body"`
	EnqueuedAt     time.Time `json:"enqueuedAt"`
}

type ApplicationSubmittedBody struct {
	ApplicationID uuid.UUID `json:"applicationId"`
}

func NewApplicationSubmittedMessage(applicationID uuid.UUID) (Message, error) {
	body, err := json.Marshal(ApplicationSubmittedBody{ApplicationID: applicationID})
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode application message body: %w", err)
	}
	return Message{TypeName: TypeApplicationSubmitted, Body: body}, nil
}

func NewConversationEndMessage() Message {
	return Message{TypeName: TypeConversationEnd}
}

func DecodeApplicationSubmittedBody(body []byte) (ApplicationSubmittedBody, error) {
	var decoded ApplicationSubmittedBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ApplicationSubmittedBody{}, fmt.Errorf("%w: undecodable application message body: %w",
			apperrors.ErrUnrecognizedMessage, err)
	}
	if decoded.ApplicationID == uuid.Nil {
		return ApplicationSubmittedBody{}, fmt.Errorf("%w: application message body missing applicationId",
			apperrors.ErrUnrecognizedMessage)
	}
	return decoded, nil
}
