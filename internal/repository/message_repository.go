package repository

import (
	"context"
	"errors"
	"time"

	"chatbazaar/internal/domain/message"
	bazaar_errors "chatbazaar/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return bazaar_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Preload("Reads").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, bazaar_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) ListForViewer(ctx context.Context, conversationID, viewerID uuid.UUID, page, limit int) ([]message.Message, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	visible := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("NOT EXISTS (SELECT 1 FROM message_deletions d WHERE d.message_id = messages.id AND d.user_id = ?)", viewerID)

	var total int64
	if err := visible.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var msgs []message.Message
	err := visible.
		Preload("Reads").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, err
	}

	// Pages are taken newest-first; the client renders oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, total, nil
}

func (r *PostgresMessageRepository) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	read := message.Read{
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    time.Now(),
	}
	// Re-reading an already-read message is a no-op.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&read).Error
}

func (r *PostgresMessageRepository) SoftDeleteFor(ctx context.Context, messageID, userID uuid.UUID) error {
	del := message.Deletion{
		MessageID: messageID,
		UserID:    userID,
		DeletedAt: time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&del).Error
}

func (r *PostgresMessageRepository) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, userID).
		Where("NOT EXISTS (SELECT 1 FROM message_reads mr WHERE mr.message_id = messages.id AND mr.user_id = ?)", userID).
		Count(&count).Error
	return count, err
}

func (r *PostgresMessageRepository) UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int64, error) {
	type row struct {
		ConversationID uuid.UUID
		Count          int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.conversation_id AS conversation_id, COUNT(*) AS count
		FROM messages m
		JOIN conversation_participants p
		  ON p.conversation_id = m.conversation_id AND p.user_id = ?
		WHERE m.sender_id <> ?
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads mr
			WHERE mr.message_id = m.id AND mr.user_id = ?
		  )
		GROUP BY m.conversation_id`, userID, userID, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.ConversationID] = r.Count
	}
	return counts, nil
}
