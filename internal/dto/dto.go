package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alluvi/go-storefront-api/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string          `json:"token"`
	User  ProfileResponse `json:"user"`
}

type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsAdmin   bool      `json:"is_admin"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// --- Product ---

type CreateProductRequest struct {
	Name                string          `json:"name" binding:"required"`
	Description         string          `json:"description"`
	Price               decimal.Decimal `json:"price" binding:"required"`
	HasPromotion        bool            `json:"has_promotion"`
	PromotionPercentage decimal.Decimal `json:"promotion_percentage"`
	MainImageURL        string          `json:"main_image_url"`
	SecondaryImage1URL  string          `json:"secondary_image_1_url"`
	SecondaryImage2URL  string          `json:"secondary_image_2_url"`
	StockQuantity       int             `json:"stock_quantity" binding:"min=0"`
	IsActive            *bool           `json:"is_active"`
}

type UpdateProductRequest struct {
	Name                *string          `json:"name"`
	Description         *string          `json:"description"`
	Price               *decimal.Decimal `json:"price"`
	HasPromotion        *bool            `json:"has_promotion"`
	PromotionPercentage *decimal.Decimal `json:"promotion_percentage"`
	MainImageURL        *string          `json:"main_image_url"`
	SecondaryImage1URL  *string          `json:"secondary_image_1_url"`
	SecondaryImage2URL  *string          `json:"secondary_image_2_url"`
	StockQuantity       *int             `json:"stock_quantity"`
	IsActive            *bool            `json:"is_active"`
}

type ListProductsRequest struct {
	Page       int    `form:"page,default=1" binding:"min=1"`
	Limit      int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search     string `form:"search"`
	Sort       string `form:"sort,default=created_at" binding:"oneof=name price created_at"`
	Order      string `form:"order,default=desc" binding:"oneof=asc desc"`
	ActiveOnly bool   `form:"active_only"`
}

type ProductResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Price               decimal.Decimal `json:"price"`
	HasPromotion        bool            `json:"has_promotion"`
	PromotionPercentage decimal.Decimal `json:"promotion_percentage"`
	EffectivePrice      decimal.Decimal `json:"effective_price"`
	MainImageURL        string          `json:"main_image_url"`
	SecondaryImage1URL  string          `json:"secondary_image_1_url,omitempty"`
	SecondaryImage2URL  string          `json:"secondary_image_2_url,omitempty"`
	StockQuantity       int             `json:"stock_quantity"`
	IsActive            bool            `json:"is_active"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"min=0"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// CartItemResponse carries the joined product explicitly; Product is nil when
// the referenced row is gone, and ItemTotal is zero in that case.
type CartItemResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *ProductResponse `json:"product,omitempty"`
	ItemTotal decimal.Decimal  `json:"item_total"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// --- Order ---

type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	ReferenceCode string              `json:"reference_code"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Status        model.OrderStatus   `json:"status"`
	Items         []OrderItemResponse `json:"items,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	ConfirmedAt   *time.Time          `json:"confirmed_at,omitempty"`
	ConfirmedBy   *uuid.UUID          `json:"confirmed_by,omitempty"`
}

type OrderItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	PromotionApplied   bool            `json:"promotion_applied"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type SearchOrdersRequest struct {
	Query string `form:"q"`
}

// --- Chat ---

type SendMessageRequest struct {
	Type    model.MessageType `json:"message_type" binding:"required,oneof=text image voice"`
	Content string            `json:"content"`
	FileURL string            `json:"file_url"`
}

type MessageResponse struct {
	ID             uuid.UUID         `json:"id"`
	ConversationID uuid.UUID         `json:"conversation_id"`
	SenderID       uuid.UUID         `json:"sender_id"`
	Type           model.MessageType `json:"message_type"`
	Content        string            `json:"content,omitempty"`
	FileURL        string            `json:"file_url,omitempty"`
	IsRead         bool              `json:"is_read"`
	CreatedAt      time.Time         `json:"created_at"`
}

type ConversationResponse struct {
	ID            uuid.UUID                `json:"id"`
	UserID        uuid.UUID                `json:"user_id"`
	AdminID       *uuid.UUID               `json:"admin_id,omitempty"`
	Status        model.ConversationStatus `json:"status"`
	LastMessageAt time.Time                `json:"last_message_at"`
	User          *ProfileResponse         `json:"user_profile,omitempty"`
	UnreadCount   int                      `json:"unread_count"`
}

type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

// --- Admin ---

type DashboardResponse struct {
	TotalUsers     int             `json:"total_users"`
	TotalProducts  int             `json:"total_products"`
	TotalOrders    int             `json:"total_orders"`
	PendingOrders  int             `json:"pending_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	UnreadMessages int             `json:"unread_messages"`
}
