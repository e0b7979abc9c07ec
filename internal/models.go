package internal

import (
	"encoding/json"
	"fmt"
)

// SenderType identifies who authored a message. The values are the wire
// values used by the remote service.
type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderAdmin    SenderType = "admin"
	SenderSystem   SenderType = "system"
)

// SessionStatus is the lifecycle state of a chat session.
type SessionStatus string

const (
	StatusOpen   SessionStatus = "open"
	StatusClosed SessionStatus = "closed"
)

// ChatSession represents one conversation between a customer and support.
type ChatSession struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customer_id"`
	CustomerName  string        `json:"customer_name,omitempty"`
	CustomerEmail string        `json:"customer_email,omitempty"`
	Status        SessionStatus `json:"status"`
	CreatedAt     string        `json:"created_at,omitempty"`
	UpdatedAt     string        `json:"updated_at,omitempty"`
}

// Message is a single timeline entry. ID is the server id for replayed
// history and the client-generated id for optimistic local echoes.
type Message struct {
	ID            string     `json:"id,omitempty"`
	Content       string     `json:"content"`
	SenderType    SenderType `json:"sender_type"`
	SenderName    string     `json:"sender_name,omitempty"`
	AttachmentURL string     `json:"attachment,omitempty"`
	Timestamp     string     `json:"timestamp,omitempty"`
}

// WidgetConfig is the remote widget configuration.
type WidgetConfig struct {
	Name           string `json:"name"`
	WelcomeMessage string `json:"welcome_message"`
	PrimaryColor   string `json:"primary_color"`
	WidgetPosition string `json:"widget_position"`
}

// DefaultWidgetConfig returns the configuration used when the remote
// config endpoint is unreachable.
func DefaultWidgetConfig() WidgetConfig {
	return WidgetConfig{
		Name:           "Customer Support",
		WelcomeMessage: "Hi there! How can we help you today?",
		PrimaryColor:   "#007bff",
		WidgetPosition: "bottom-right",
	}
}

// Frame types exchanged over the duplex channel.
const (
	FrameChatMessage          = "chat_message"
	FrameConversationClosed   = "conversation_closed"
	FrameConversationReopened = "conversation_reopened"
	FrameCloseConversation    = "close_conversation"
)

// InboundFrame is a parsed frame received from the duplex channel.
type InboundFrame struct {
	Type          string     `json:"type"`
	Message       string     `json:"message,omitempty"`
	SenderType    SenderType `json:"sender_type,omitempty"`
	SenderName    string     `json:"sender_name,omitempty"`
	MessageID     string     `json:"message_id,omitempty"`
	AttachmentURL string     `json:"attachment_url,omitempty"`
	Timestamp     string     `json:"timestamp,omitempty"`
	ClosedBy      string     `json:"closed_by,omitempty"`
	ReopenedBy    string     `json:"reopened_by,omitempty"`
}

// OutboundFrame is a frame sent over the duplex channel. MessageID is a
// client-generated uuid carried so both the local echo and any relayed
// copy of the same send can be matched up.
type OutboundFrame struct {
	Type           string     `json:"type"`
	Message        string     `json:"message,omitempty"`
	SenderType     SenderType `json:"sender_type,omitempty"`
	SenderName     string     `json:"sender_name,omitempty"`
	MessageID      string     `json:"message_id,omitempty"`
	AttachmentPath string     `json:"attachment_path,omitempty"`
	AttachmentURL  string     `json:"attachment_url,omitempty"`
}

// ParseInboundFrame parses and validates a raw frame payload.
func ParseInboundFrame(data []byte) (*InboundFrame, error) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("malformed frame JSON: %v", err)}
	}

	switch frame.Type {
	case FrameChatMessage:
		if frame.SenderType != SenderCustomer && frame.SenderType != SenderAdmin && frame.SenderType != SenderSystem {
			return nil, &ProtocolError{Reason: fmt.Sprintf("unknown sender_type %q", frame.SenderType)}
		}
		if frame.Message == "" && frame.AttachmentURL == "" {
			return nil, &ProtocolError{Reason: "chat_message frame without message or attachment"}
		}
	case FrameConversationClosed, FrameConversationReopened:
		// closed_by / reopened_by may legitimately be empty
	case "":
		return nil, &ProtocolError{Reason: "frame without type"}
	default:
		return nil, &ProtocolError{Reason: fmt.Sprintf("unknown frame type %q", frame.Type)}
	}

	return &frame, nil
}

// AsMessage converts a chat_message frame into a timeline Message.
func (f *InboundFrame) AsMessage() Message {
	return Message{
		ID:            f.MessageID,
		Content:       f.Message,
		SenderType:    f.SenderType,
		SenderName:    f.SenderName,
		AttachmentURL: f.AttachmentURL,
		Timestamp:     f.Timestamp,
	}
}
