package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/alluvi/go-storefront-api/internal/dto"
	"github.com/alluvi/go-storefront-api/internal/model"
	"github.com/alluvi/go-storefront-api/internal/repository"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
	ErrOrderNotPending   = errors.New("order is not pending")
)

const orderChatQueue = "order_chat"

type OrderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	amqpCh    *amqp.Channel
	log       *slog.Logger
}

func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, amqpCh *amqp.Channel, log *slog.Logger) *OrderService {
	return &OrderService{orderRepo: orderRepo, cartRepo: cartRepo, amqpCh: amqpCh, log: log}
}

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateReferenceCode builds the human-shareable order reference: the last
// six digits of the millisecond timestamp plus three random base-36 chars,
// e.g. ORD-483920-K7X. Uniqueness rests on the timestamp and randomness; there
// is no collision retry.
func GenerateReferenceCode() string {
	millis := strconv.FormatInt(time.Now().UnixMilli(), 10)
	datePart := millis[len(millis)-6:]

	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	for i := range buf {
		buf[i] = referenceAlphabet[int(buf[i])%len(referenceAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", datePart, buf)
}

// Checkout freezes the cart into an order. The order row, its snapshot items
// and the cart clear commit in one transaction; the support-chat notification
// is handed off to the queue afterwards and may fail without affecting the
// order.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID) (*dto.OrderResponse, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order := &model.Order{
		UserID:        userID,
		ReferenceCode: GenerateReferenceCode(),
		Status:        model.OrderStatusPending,
		TotalAmount:   CartTotal(items),
	}
	for i := range items {
		item := &items[i]
		if item.Product == nil {
			return nil, fmt.Errorf("product %s not found", item.ProductID)
		}
		order.Items = append(order.Items, model.OrderItem{
			ProductID:          item.ProductID,
			ProductName:        item.Product.Name,
			Quantity:           item.Quantity,
			UnitPrice:          item.Product.Price,
			PromotionApplied:   item.Product.HasPromotion,
			DiscountPercentage: item.Product.PromotionPercentage,
			Subtotal:           ItemPrice(item),
		})
	}

	if err := s.orderRepo.CreateCheckout(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publishChatHandoff(ctx, order)

	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) publishChatHandoff(ctx context.Context, order *model.Order) {
	if s.amqpCh == nil {
		return
	}
	msg, _ := json.Marshal(model.OrderChatMessage{
		OrderID:       order.ID,
		UserID:        order.UserID,
		ReferenceCode: order.ReferenceCode,
	})
	err := s.amqpCh.PublishWithContext(ctx, "", orderChatQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		// Best-effort: the order stands even when the handoff fails.
		s.log.Error("publish order chat handoff", "order_id", order.ID, "error", err)
	}
}

func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]dto.OrderResponse, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	resps := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		resps = append(resps, toOrderResponse(&orders[i]))
	}
	return resps, nil
}

// Search is the admin reference-code lookup; an empty query returns all
// orders.
func (s *OrderService) Search(ctx context.Context, query string) ([]dto.OrderResponse, error) {
	orders, err := s.orderRepo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}
	resps := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		resps = append(resps, toOrderResponse(&orders[i]))
	}
	return resps, nil
}

// Confirm moves a pending order to confirmed, stamping who confirmed it and
// when. Any other starting status is rejected.
func (s *OrderService) Confirm(ctx context.Context, orderID, adminID uuid.UUID) error {
	return s.transition(ctx, orderID, model.OrderStatusConfirmed, &adminID)
}

// Cancel moves a pending order to cancelled. No stamp is recorded.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, model.OrderStatusCancelled, nil)
}

func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, to model.OrderStatus, confirmedBy *uuid.UUID) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != model.OrderStatusPending {
		return ErrOrderNotPending
	}
	if err := s.orderRepo.UpdateStatus(ctx, orderID, to, confirmedBy); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	var items []dto.OrderItemResponse
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			PromotionApplied:   item.PromotionApplied,
			DiscountPercentage: item.DiscountPercentage,
			Subtotal:           item.Subtotal,
		})
	}
	return dto.OrderResponse{
		ID:            order.ID,
		UserID:        order.UserID,
		ReferenceCode: order.ReferenceCode,
		TotalAmount:   order.TotalAmount,
		Status:        order.Status,
		Items:         items,
		CreatedAt:     order.CreatedAt,
		ConfirmedAt:   order.ConfirmedAt,
		ConfirmedBy:   order.ConfirmedBy,
	}
}
