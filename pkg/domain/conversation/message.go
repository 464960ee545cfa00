package conversation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
)

const (
	MaxMessageLength = 5000
	previewLength    = 100
)

// Message is one post in a conversation.
type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversationId"`
	SenderID       uuid.UUID  `json:"senderId"`
	Content        string     `json:"content"`
	IsEdited       bool       `json:"isEdited"`
	EditedAt       *time.Time `json:"editedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// LastMessage summarises the newest message of a conversation.
type LastMessage struct {
	Content  string    `json:"content"`
	SenderID uuid.UUID `json:"senderId"`
	SentAt   time.Time `json:"sentAt"`
}

// NewMessage validates content and builds a message from senderID.
func NewMessage(conversationID, senderID uuid.UUID, content string, now time.Time) (*Message, error) {
	content, err := validContent(content)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      now,
	}, nil
}

// Edit replaces the content and marks the message as edited.
func (m *Message) Edit(content string, now time.Time) error {
	content, err := validContent(content)
	if err != nil {
		return err
	}
	m.Content = content
	m.IsEdited = true
	m.EditedAt = &now
	return nil
}

// Preview is the start of the content, as shown in conversation lists.
func (m *Message) Preview() string {
	if utf8.RuneCountInString(m.Content) <= previewLength {
		return m.Content
	}
	return string([]rune(m.Content)[:previewLength])
}

func validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: message content is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return "", fmt.Errorf("%w: message exceeds %d characters", domain.ErrValidation, MaxMessageLength)
	}
	return content, nil
}
