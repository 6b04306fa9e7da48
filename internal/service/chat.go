package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alluvi/go-storefront-api/internal/dto"
	"github.com/alluvi/go-storefront-api/internal/model"
	"github.com/alluvi/go-storefront-api/internal/realtime"
	"github.com/alluvi/go-storefront-api/internal/repository"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationAccess   = errors.New("not a participant of this conversation")
	ErrEmptyMessage         = errors.New("message has no content")
)

type ChatService struct {
	chatRepo repository.ChatRepository
	hub      *realtime.Hub
}

func NewChatService(chatRepo repository.ChatRepository, hub *realtime.Hub) *ChatService {
	return &ChatService{chatRepo: chatRepo, hub: hub}
}

// ResolveConversation returns the user's canonical active conversation,
// creating one when none exists. Canonical means most recently used; two
// concurrent callers can still each create one, and the admin listing
// collapses such duplicates per user.
func (s *ChatService) ResolveConversation(ctx context.Context, userID uuid.UUID) (*model.Conversation, error) {
	conv, err := s.chatRepo.GetActiveConversation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get active conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}

	conv = &model.Conversation{UserID: userID, Status: model.ConversationStatusActive}
	if err := s.chatRepo.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *ChatService) LoadMessages(ctx context.Context, conversationID uuid.UUID) ([]dto.MessageResponse, error) {
	msgs, err := s.chatRepo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	resps := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		resps = append(resps, toMessageResponse(&msgs[i]))
	}
	return resps, nil
}

// SendMessage appends a message, bumps the conversation's last_message_at and
// publishes the realtime event. The bump and the publish are follow-ups to an
// already-persisted message; their failures are secondary.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, msgType model.MessageType, content, fileURL string) (*dto.MessageResponse, error) {
	if content == "" && fileURL == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Type:           msgType,
		Content:        content,
		FileURL:        fileURL,
		IsRead:         false,
	}
	if err := s.chatRepo.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if err := s.chatRepo.TouchLastMessage(ctx, conversationID, time.Now()); err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}

	if s.hub != nil {
		s.hub.PublishMessage(ctx, msg)
	}

	resp := toMessageResponse(msg)
	return &resp, nil
}

// MarkRead flips unread messages from the other party; repeat calls are
// no-ops.
func (s *ChatService) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	if err := s.chatRepo.MarkRead(ctx, conversationID, readerID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *ChatService) UnreadCount(ctx context.Context, conversationID, viewerID uuid.UUID) (int, error) {
	return s.chatRepo.UnreadCount(ctx, conversationID, viewerID)
}

// Typing fans the signal out to the conversation channel; one broadcast per
// keystroke, nothing throttled sender-side.
func (s *ChatService) Typing(ctx context.Context, conversationID, userID uuid.UUID) {
	if s.hub != nil {
		s.hub.PublishTyping(ctx, conversationID, userID)
	}
}

// ListConversations is the admin console view: one conversation per user (the
// most recently active row wins, duplicates from the creation race are
// dropped), each annotated with the admin's unread count.
func (s *ChatService) ListConversations(ctx context.Context, adminID uuid.UUID) (*dto.ConversationListResponse, error) {
	convs, err := s.chatRepo.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	resp := &dto.ConversationListResponse{Conversations: make([]dto.ConversationResponse, 0, len(convs))}
	for i := range convs {
		conv := &convs[i]
		if seen[conv.UserID] {
			continue
		}
		seen[conv.UserID] = true

		unread, err := s.chatRepo.UnreadCount(ctx, conv.ID, adminID)
		if err != nil {
			return nil, fmt.Errorf("unread count: %w", err)
		}

		resp.Conversations = append(resp.Conversations, dto.ConversationResponse{
			ID:            conv.ID,
			UserID:        conv.UserID,
			AdminID:       conv.AdminID,
			Status:        conv.Status,
			LastMessageAt: conv.LastMessageAt,
			User: &dto.ProfileResponse{
				ID:        conv.UserID,
				Email:     conv.UserEmail,
				FullName:  conv.UserFullName,
				AvatarURL: conv.UserAvatarURL,
			},
			UnreadCount: unread,
		})
	}
	return resp, nil
}

func (s *ChatService) CloseConversation(ctx context.Context, conversationID, adminID uuid.UUID) error {
	if err := s.chatRepo.SetConversationStatus(ctx, conversationID, model.ConversationStatusClosed, &adminID); err != nil {
		return fmt.Errorf("close conversation: %w", err)
	}
	return nil
}

// RequireParticipant guards conversation access: the owner or any admin.
func (s *ChatService) RequireParticipant(ctx context.Context, conversationID, userID uuid.UUID, isAdmin bool) (*model.Conversation, error) {
	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !isAdmin && conv.UserID != userID {
		return nil, ErrConversationAccess
	}
	return conv, nil
}

func toMessageResponse(m *model.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Type:           m.Type,
		Content:        m.Content,
		FileURL:        m.FileURL,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
}
