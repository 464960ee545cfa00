package conversation

import (
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain/conversation"
)

type Conversation struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey"`
	BookingID    uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null"`
	PropertyID   uuid.UUID     `gorm:"type:uuid;index;not null"`
	Status       string        `gorm:"size:20;not null"`
	Participants []Participant `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`

	LastMessageContent  string
	LastMessageSenderID *uuid.UUID `gorm:"type:uuid"`
	LastMessageAt       *time.Time
	MessageCount        int64 `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Conversation) TableName() string { return "conversations" }

type Participant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role           string    `gorm:"size:20;not null"`
	LastReadAt     *time.Time
	Muted          bool
}

func (Participant) TableName() string { return "conversation_participants" }

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_conversation_created,priority:1"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	Content        string    `gorm:"type:text;not null"`
	IsEdited       bool      `gorm:"not null"`
	EditedAt       *time.Time
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2"`
}

func (Message) TableName() string { return "messages" }

func toModel(c *conversation.Conversation) *Conversation {
	m := &Conversation{
		ID:         c.ID,
		BookingID:  c.BookingID,
		PropertyID: c.PropertyID,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt,
	}
	for _, p := range c.Participants {
		m.Participants = append(m.Participants, Participant{
			ConversationID: c.ID,
			UserID:         p.UserID,
			Role:           string(p.Role),
		})
	}
	return m
}

func toDomain(m *Conversation) *conversation.Conversation {
	c := &conversation.Conversation{
		ID:         m.ID,
		BookingID:  m.BookingID,
		PropertyID: m.PropertyID,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,

		MessageCount: m.MessageCount,
	}
	if m.LastMessageAt != nil && m.LastMessageSenderID != nil {
		c.LastMessage = &conversation.LastMessage{
			Content:  m.LastMessageContent,
			SenderID: *m.LastMessageSenderID,
			SentAt:   *m.LastMessageAt,
		}
	}
	for _, p := range m.Participants {
		c.Participants = append(c.Participants, conversation.Participant{
			UserID: p.UserID,
			Role:   conversation.Role(p.Role),
		})
	}
	return c
}

func messageToModel(m *conversation.Message) *Message {
	return &Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		IsEdited:       m.IsEdited,
		EditedAt:       m.EditedAt,
		CreatedAt:      m.CreatedAt,
	}
}

func messageToDomain(m *Message) *conversation.Message {
	return &conversation.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		IsEdited:       m.IsEdited,
		EditedAt:       m.EditedAt,
		CreatedAt:      m.CreatedAt,
	}
}
