package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alluvi/go-storefront-api/internal/model"
)

type ChatRepository interface {
	GetActiveConversation(ctx context.Context, userID uuid.UUID) (*model.Conversation, error)
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	ListConversations(ctx context.Context) ([]model.ConversationWithProfile, error)
	SetConversationStatus(ctx context.Context, id uuid.UUID, status model.ConversationStatus, adminID *uuid.UUID) error
	TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error

	InsertMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]model.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error
	UnreadCount(ctx context.Context, conversationID, viewerID uuid.UUID) (int, error)
	CountUnread(ctx context.Context) (int, error)
}

type pgChatRepo struct{ pool *pgxpool.Pool }

func NewChatRepository(pool *pgxpool.Pool) ChatRepository {
	return &pgChatRepo{pool: pool}
}

// GetActiveConversation returns the most recently used active conversation for
// the user. "One active conversation per user" is a query convention, not a
// constraint; concurrent creators can still race.
func (r *pgChatRepo) GetActiveConversation(ctx context.Context, userID uuid.UUID) (*model.Conversation, error) {
	conv := &model.Conversation{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, admin_id, status, last_message_at, created_at
		 FROM chat_conversations
		 WHERE user_id = $1 AND status = 'active'
		 ORDER BY last_message_at DESC
		 LIMIT 1`, userID,
	).Scan(&conv.ID, &conv.UserID, &conv.AdminID, &conv.Status, &conv.LastMessageAt, &conv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active conversation: %w", err)
	}
	return conv, nil
}

func (r *pgChatRepo) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	conv.ID = uuid.New()
	if conv.Status == "" {
		conv.Status = model.ConversationStatusActive
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO chat_conversations (id, user_id, admin_id, status, last_message_at, created_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING last_message_at, created_at`,
		conv.ID, conv.UserID, conv.AdminID, conv.Status,
	).Scan(&conv.LastMessageAt, &conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (r *pgChatRepo) GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	conv := &model.Conversation{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, admin_id, status, last_message_at, created_at
		 FROM chat_conversations WHERE id = $1`, id,
	).Scan(&conv.ID, &conv.UserID, &conv.AdminID, &conv.Status, &conv.LastMessageAt, &conv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

func (r *pgChatRepo) ListConversations(ctx context.Context) ([]model.ConversationWithProfile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.user_id, c.admin_id, c.status, c.last_message_at, c.created_at,
			p.email, p.full_name, p.avatar_url
		 FROM chat_conversations c
		 JOIN profiles p ON p.id = c.user_id
		 ORDER BY c.last_message_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []model.ConversationWithProfile
	for rows.Next() {
		var c model.ConversationWithProfile
		err := rows.Scan(&c.ID, &c.UserID, &c.AdminID, &c.Status, &c.LastMessageAt, &c.CreatedAt,
			&c.UserEmail, &c.UserFullName, &c.UserAvatarURL)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, nil
}

func (r *pgChatRepo) SetConversationStatus(ctx context.Context, id uuid.UUID, status model.ConversationStatus, adminID *uuid.UUID) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE chat_conversations SET status = $2, admin_id = COALESCE($3, admin_id) WHERE id = $1`,
		id, status, adminID,
	)
	if err != nil {
		return fmt.Errorf("set conversation status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgChatRepo) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_conversations SET last_message_at = $2 WHERE id = $1`, id, at,
	)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

func (r *pgChatRepo) InsertMessage(ctx context.Context, msg *model.Message) error {
	msg.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO chat_messages (id, conversation_id, sender_id, message_type, content, file_url, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING created_at`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Type, msg.Content, msg.FileURL, msg.IsRead,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns the full history, oldest first.
func (r *pgChatRepo) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]model.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, conversation_id, sender_id, message_type, content, file_url, is_read, created_at
		 FROM chat_messages
		 WHERE conversation_id = $1
		 ORDER BY created_at ASC`, conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Type, &m.Content, &m.FileURL, &m.IsRead, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// MarkRead flips every unread message not sent by the reader. Running it again
// matches zero rows, so the call is idempotent.
func (r *pgChatRepo) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_messages SET is_read = TRUE
		 WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE`,
		conversationID, readerID,
	)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (r *pgChatRepo) UnreadCount(ctx context.Context, conversationID, viewerID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_messages
		 WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE`,
		conversationID, viewerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}

func (r *pgChatRepo) CountUnread(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE is_read = FALSE`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
