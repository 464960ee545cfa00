package conversation

import (
	"context"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/infra/repository/common"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/conversation"
	repo "github.com/mywatercloset/api/pkg/repository/conversation"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *conversation.Conversation) error {
	return common.Do(func() error {
		return r.db.WithContext(ctx).Create(toModel(c)).Error
	})
}

func (r *repository) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*conversation.Conversation, error) {
	var m Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("booking_id = ?", bookingID).
		First(&m).Error
	if err != nil {
		return nil, common.TranslateAs(err, domain.ErrNotFound)
	}
	return toDomain(&m), nil
}

func (r *repository) AddMessage(ctx context.Context, m *conversation.Message) error {
	return common.Do(func() error {
		db := r.db.WithContext(ctx)
		if err := db.Create(messageToModel(m)).Error; err != nil {
			return err
		}
		res := db.Model(&Conversation{}).
			Where("id = ?", m.ConversationID).
			Updates(map[string]any{
				"last_message_content":   m.Preview(),
				"last_message_sender_id": m.SenderID,
				"last_message_at":        m.CreatedAt,
				"message_count":          gorm.Expr("message_count + 1"),
				"updated_at":             m.CreatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *repository) GetMessage(ctx context.Context, id uuid.UUID) (*conversation.Message, error) {
	var m Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, common.Translate(err)
	}
	return messageToDomain(&m), nil
}

func (r *repository) UpdateMessage(ctx context.Context, m *conversation.Message) error {
	return common.Do(func() error {
		return r.db.WithContext(ctx).
			Model(&Message{}).
			Where("id = ?", m.ID).
			Updates(map[string]any{
				"content":   m.Content,
				"is_edited": m.IsEdited,
				"edited_at": m.EditedAt,
			}).Error
	})
}

func (r *repository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*conversation.Message, error) {
	var rows []Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, common.Translate(err)
	}
	out := make([]*conversation.Message, 0, len(rows))
	for i := range rows {
		out = append(out, messageToDomain(&rows[i]))
	}
	return out, nil
}
