// Package conversation manages the message thread opened for each confirmed booking.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/conversation"
	"github.com/mywatercloset/api/pkg/repository"
)

type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger.With("service", "conversation")}
}

// EnsureForBooking creates the booking's conversation with the booker and
// the owner as participants. If one already exists it is returned unchanged.
func (s *Service) EnsureForBooking(
	ctx context.Context,
	bookingID, propertyID, bookerID, ownerID uuid.UUID,
) (*conversation.Conversation, error) {
	c := conversation.ForBooking(bookingID, propertyID, bookerID, ownerID)
	err := s.uow.Do(ctx, func(u repository.UnitOfWork) error {
		return u.ConversationRepository().Create(ctx, c)
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		s.logger.Debug("Conversation already exists", "bookingID", bookingID)
		return s.uow.ConversationRepository().GetByBooking(ctx, bookingID)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("💬 Conversation created", "bookingID", bookingID, "conversationID", c.ID)
	return c, nil
}

// GetForBooking returns the conversation if callerID takes part in it.
func (s *Service) GetForBooking(ctx context.Context, callerID, bookingID uuid.UUID) (*conversation.Conversation, error) {
	return participantOnly(ctx, s.uow, callerID, bookingID)
}

const defaultMessageLimit = 200

// PostMessage adds a message from senderID to the booking's conversation.
// The message and the conversation summary are written together.
func (s *Service) PostMessage(ctx context.Context, senderID, bookingID uuid.UUID, content string) (*conversation.Message, error) {
	const op = "conversation.PostMessage"
	log := s.logger.With("bookingID", bookingID, "senderID", senderID)

	var posted *conversation.Message
	err := s.uow.Do(ctx, func(u repository.UnitOfWork) error {
		c, err := participantOnly(ctx, u, senderID, bookingID)
		if err != nil {
			return err
		}
		m, err := conversation.NewMessage(c.ID, senderID, content, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := u.ConversationRepository().AddMessage(ctx, m); err != nil {
			return err
		}
		posted = m
		return nil
	})
	if err != nil {
		log.Warn("Message not posted", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("💬 Message posted", "messageID", posted.ID)
	return posted, nil
}

// ListMessages returns the conversation's messages, oldest first.
func (s *Service) ListMessages(ctx context.Context, callerID, bookingID uuid.UUID) ([]*conversation.Message, error) {
	c, err := participantOnly(ctx, s.uow, callerID, bookingID)
	if err != nil {
		return nil, err
	}
	return s.uow.ConversationRepository().ListMessages(ctx, c.ID, defaultMessageLimit)
}

// EditMessage replaces the content of a message. Only its sender may edit it.
func (s *Service) EditMessage(
	ctx context.Context,
	callerID, bookingID, messageID uuid.UUID,
	content string,
) (*conversation.Message, error) {
	const op = "conversation.EditMessage"

	var edited *conversation.Message
	err := s.uow.Do(ctx, func(u repository.UnitOfWork) error {
		c, err := participantOnly(ctx, u, callerID, bookingID)
		if err != nil {
			return err
		}
		m, err := u.ConversationRepository().GetMessage(ctx, messageID)
		if err != nil {
			return err
		}
		if m.ConversationID != c.ID {
			return domain.ErrNotFound
		}
		if m.SenderID != callerID {
			return domain.ErrForbidden
		}
		if err := m.Edit(content, time.Now().UTC()); err != nil {
			return err
		}
		if err := u.ConversationRepository().UpdateMessage(ctx, m); err != nil {
			return err
		}
		edited = m
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return edited, nil
}

func participantOnly(
	ctx context.Context,
	u repository.UnitOfWork,
	callerID, bookingID uuid.UUID,
) (*conversation.Conversation, error) {
	c, err := u.ConversationRepository().GetByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(callerID) {
		return nil, domain.ErrForbidden
	}
	return c, nil
}
