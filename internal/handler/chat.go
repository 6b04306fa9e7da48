package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alluvi/go-storefront-api/internal/dto"
	"github.com/alluvi/go-storefront-api/internal/middleware"
	"github.com/alluvi/go-storefront-api/internal/model"
	"github.com/alluvi/go-storefront-api/internal/realtime"
	"github.com/alluvi/go-storefront-api/internal/service"
	"github.com/alluvi/go-storefront-api/internal/storage"
)

type ChatHandler struct {
	svc      *service.ChatService
	hub      *realtime.Hub
	uploader storage.Uploader
}

func NewChatHandler(svc *service.ChatService, hub *realtime.Hub, uploader storage.Uploader) *ChatHandler {
	return &ChatHandler{svc: svc, hub: hub, uploader: uploader}
}

// GetConversation resolves the caller's active support conversation, creating
// one on first contact.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	conv, err := h.svc.ResolveConversation(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.ConversationResponse{
		ID:            conv.ID,
		UserID:        conv.UserID,
		AdminID:       conv.AdminID,
		Status:        conv.Status,
		LastMessageAt: conv.LastMessageAt,
	})
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	conv, ok := h.requireConversation(c)
	if !ok {
		return
	}
	msgs, err := h.svc.LoadMessages(c.Request.Context(), conv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	conv, ok := h.requireConversation(c)
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.svc.SendMessage(c.Request.Context(), conv.ID, middleware.GetUserID(c), req.Type, req.Content, req.FileURL)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message has no content"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	conv, ok := h.requireConversation(c)
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), conv.ID, middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked read"})
}

// Typing relays one keystroke signal to the conversation channel.
func (h *ChatHandler) Typing(c *gin.Context) {
	conv, ok := h.requireConversation(c)
	if !ok {
		return
	}
	h.svc.Typing(c.Request.Context(), conv.ID, middleware.GetUserID(c))
	c.Status(http.StatusAccepted)
}

// StreamEvents serves the conversation's realtime feed over SSE. A message
// from the other party triggers the reader's mark-as-read side effect, the
// same bookkeeping the conversation view does on load.
func (h *ChatHandler) StreamEvents(c *gin.Context) {
	conv, ok := h.requireConversation(c)
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	// The stream holds the response open indefinitely; lift the server's
	// write deadline for this response so open feeds are not cut off.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	feed, err := h.hub.OpenFeed(c.Request.Context(), conv.ID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	defer feed.Close()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-feed.Events:
			if !open {
				return false
			}
			if ev.Kind == realtime.EventMessage && ev.Message != nil && ev.Message.SenderID != userID {
				_ = h.svc.MarkRead(c.Request.Context(), conv.ID, userID)
			}
			c.SSEvent(string(ev.Kind), ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// UploadAttachment stores a chat image and returns its public URL; the client
// follows up with an image message referencing it.
func (h *ChatHandler) UploadAttachment(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	defer file.Close()

	url, err := h.uploader.Upload(c.Request.Context(), file, header.Filename, storage.BucketChatImages)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, dto.UploadResponse{URL: url})
}

// ListConversations is the admin console listing, one row per user with
// unread counts.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	resp, err := h.svc.ListConversations(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) CloseConversation(c *gin.Context) {
	conv, ok := h.requireConversation(c)
	if !ok {
		return
	}
	if err := h.svc.CloseConversation(c.Request.Context(), conv.ID, middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversation closed"})
}

func (h *ChatHandler) requireConversation(c *gin.Context) (conv *model.Conversation, ok bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return nil, false
	}
	found, err := h.svc.RequireParticipant(c.Request.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		case errors.Is(err, service.ErrConversationAccess):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return nil, false
	}
	return found, true
}
