package conversation

import (
	"context"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain/conversation"
)

type Repository interface {
	// Create returns domain.ErrAlreadyExists if the booking already has one.
	Create(ctx context.Context, c *conversation.Conversation) error
	GetByBooking(ctx context.Context, bookingID uuid.UUID) (*conversation.Conversation, error)

	// AddMessage stores m and moves the conversation's last message and
	// message count forward.
	AddMessage(ctx context.Context, m *conversation.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*conversation.Message, error)
	UpdateMessage(ctx context.Context, m *conversation.Message) error
	// ListMessages returns up to limit messages, oldest first.
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*conversation.Message, error)
}
