package chathub

import (
	"encoding/json"
	"log"

	"unibuddy/backend/internal/models"
)

// Outbound chat event types.
const (
	EventMessage   = "message"
	EventChatEnded = "chat_ended"
)

type messageEvent struct {
	Type    string             `json:"type"`
	Message models.MessageView `json:"message"`
}

type chatEndedEvent struct {
	Type string `json:"type"`
}

// inboundChatMessage is what a chat socket sends.
type inboundChatMessage struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// EncodeEvent marshals an outbound event, logging and returning nil on failure.
func EncodeEvent(event any) []byte {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: failed to encode event %T: %v", event, err)
		return nil
	}
	return payload
}
