package internal

import "fmt"

// Test helpers exported for use by other packages' tests.

// CreateTestSession creates an open chat session for testing.
func CreateTestSession() *ChatSession {
	return &ChatSession{
		ID:            "session-1",
		CustomerID:    "customer_1700000000000_abc123def",
		CustomerName:  "Test Customer",
		CustomerEmail: "test@example.com",
		Status:        StatusOpen,
		CreatedAt:     "2024-01-15T10:00:00Z",
	}
}

// CreateTestMessage creates a timeline message for testing.
func CreateTestMessage(id string, sender SenderType, content string) Message {
	name := "Test Customer"
	if sender == SenderAdmin {
		name = "Agent Smith"
	} else if sender == SenderSystem {
		name = "System"
	}
	return Message{
		ID:         id,
		Content:    content,
		SenderType: sender,
		SenderName: name,
		Timestamp:  "2024-01-15T10:00:00Z",
	}
}

// CreateTestTimeline creates an alternating customer/admin timeline of n
// messages for testing.
func CreateTestTimeline(n int) []Message {
	messages := make([]Message, 0, n)
	for i := 0; i < n; i++ {
		sender := SenderCustomer
		if i%2 == 1 {
			sender = SenderAdmin
		}
		messages = append(messages, CreateTestMessage(
			fmt.Sprintf("msg-%d", i+1),
			sender,
			fmt.Sprintf("Message number %d", i+1),
		))
	}
	return messages
}
