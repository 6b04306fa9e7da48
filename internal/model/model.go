package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Profile struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FullName  string
	IsAdmin   bool
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID                  uuid.UUID
	Name                string
	Description         string
	Price               decimal.Decimal
	HasPromotion        bool
	PromotionPercentage decimal.Decimal
	MainImageURL        string
	SecondaryImage1URL  string
	SecondaryImage2URL  string
	StockQuantity       int
	IsActive            bool
	CreatedBy           uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// EffectivePrice is the list price with the promotion discount applied.
func (p *Product) EffectivePrice() decimal.Decimal {
	if !p.HasPromotion {
		return p.Price
	}
	factor := decimal.NewFromInt(1).Sub(p.PromotionPercentage.Div(decimal.NewFromInt(100)))
	return p.Price.Mul(factor)
}

type CartItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time

	// Product is the joined row; nil when the product no longer exists.
	Product *Product
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	ReferenceCode string
	TotalAmount   decimal.Decimal
	Status        OrderStatus
	Items         []OrderItem
	CreatedAt     time.Time
	ConfirmedAt   *time.Time
	ConfirmedBy   *uuid.UUID
}

// OrderItem snapshots the product at checkout time so later product edits
// never alter order history.
type OrderItem struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	ProductID          uuid.UUID
	ProductName        string
	Quantity           int
	UnitPrice          decimal.Decimal
	PromotionApplied   bool
	DiscountPercentage decimal.Decimal
	Subtotal           decimal.Decimal
	CreatedAt          time.Time
}

type ConversationStatus string

const (
	ConversationStatusActive ConversationStatus = "active"
	ConversationStatusClosed ConversationStatus = "closed"
)

type Conversation struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	AdminID       *uuid.UUID
	Status        ConversationStatus
	LastMessageAt time.Time
	CreatedAt     time.Time
}

// ConversationWithProfile is the admin-console projection: a conversation row
// joined with the owning user's profile.
type ConversationWithProfile struct {
	Conversation
	UserEmail     string
	UserFullName  string
	UserAvatarURL string
}

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVoice MessageType = "voice"
)

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Type           MessageType
	Content        string
	FileURL        string
	IsRead         bool
	CreatedAt      time.Time
}

// OrderTotal is the slim projection the admin dashboard reduces over.
type OrderTotal struct {
	TotalAmount decimal.Decimal
	Status      OrderStatus
}

// OrderChatMessage is the queue payload carrying the checkout-to-chat handoff.
type OrderChatMessage struct {
	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	ReferenceCode string    `json:"reference_code"`
}
