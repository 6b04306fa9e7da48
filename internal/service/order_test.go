package service

import (
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alluvi/go-storefront-api/internal/model"
)

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) CreateCheckout(_ context.Context, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return m.orders[id], nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (m *mockOrderRepo) Search(_ context.Context, query string) ([]model.Order, error) {
	var orders []model.Order
	for _, o := range m.orders {
		orders = append(orders, *o)
	}
	return orders, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus, confirmedBy *uuid.UUID) error {
	if o, ok := m.orders[id]; ok {
		o.Status = status
		if status == model.OrderStatusConfirmed {
			now := time.Now()
			o.ConfirmedAt = &now
			o.ConfirmedBy = confirmedBy
		}
	}
	return nil
}

func (m *mockOrderRepo) ListTotals(_ context.Context) ([]model.OrderTotal, error) {
	var totals []model.OrderTotal
	for _, o := range m.orders {
		totals = append(totals, model.OrderTotal{TotalAmount: o.TotalAmount, Status: o.Status})
	}
	return totals, nil
}

func testOrderService(orderRepo *mockOrderRepo, cartRepo *mockCartRepo) *OrderService {
	return NewOrderService(orderRepo, cartRepo, nil, slog.Default())
}

func TestGenerateReferenceCode_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{6}-[A-Z0-9]{3}$`)
	for i := 0; i < 50; i++ {
		code := GenerateReferenceCode()
		assert.Regexp(t, pattern, code)
	}
}

func TestOrderService_Checkout_EmptyCart(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := testOrderService(orderRepo, newMockCartRepo())

	_, err := svc.Checkout(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orderRepo.orders)
}

func TestOrderService_Checkout_SnapshotsCart(t *testing.T) {
	orderRepo := newMockOrderRepo()
	cartRepo := newMockCartRepo()
	userID := uuid.New()
	pid := uuid.New()
	item := &model.CartItem{
		ID: uuid.New(), UserID: userID, ProductID: pid, Quantity: 2,
		Product: &model.Product{
			ID: pid, Name: "Widget", Price: decimal.NewFromInt(100),
			HasPromotion: true, PromotionPercentage: decimal.NewFromInt(50),
		},
	}
	cartRepo.items[item.ID] = item
	svc := testOrderService(orderRepo, cartRepo)

	resp, err := svc.Checkout(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, resp.Status)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(100)),
		"expected 100, got %s", resp.TotalAmount)

	require.Len(t, resp.Items, 1)
	line := resp.Items[0]
	assert.Equal(t, "Widget", line.ProductName)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, line.PromotionApplied)
	assert.True(t, line.Subtotal.Equal(decimal.NewFromInt(100)))
}

func TestOrderService_GetByID_WrongUser(t *testing.T) {
	orderRepo := newMockOrderRepo()
	orderID := uuid.New()
	orderRepo.orders[orderID] = &model.Order{ID: orderID, UserID: uuid.New(), Status: model.OrderStatusPending}
	svc := testOrderService(orderRepo, newMockCartRepo())

	_, err := svc.GetByID(context.Background(), orderID, uuid.New())
	assert.ErrorIs(t, err, ErrOrderAccessDenied)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	svc := testOrderService(newMockOrderRepo(), newMockCartRepo())
	_, err := svc.GetByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_Confirm(t *testing.T) {
	orderRepo := newMockOrderRepo()
	orderID := uuid.New()
	adminID := uuid.New()
	orderRepo.orders[orderID] = &model.Order{ID: orderID, Status: model.OrderStatusPending}
	svc := testOrderService(orderRepo, newMockCartRepo())

	require.NoError(t, svc.Confirm(context.Background(), orderID, adminID))

	order := orderRepo.orders[orderID]
	assert.Equal(t, model.OrderStatusConfirmed, order.Status)
	require.NotNil(t, order.ConfirmedAt)
	require.NotNil(t, order.ConfirmedBy)
	assert.Equal(t, adminID, *order.ConfirmedBy)
}

func TestOrderService_Confirm_NotPending(t *testing.T) {
	orderRepo := newMockOrderRepo()
	orderID := uuid.New()
	orderRepo.orders[orderID] = &model.Order{ID: orderID, Status: model.OrderStatusCancelled}
	svc := testOrderService(orderRepo, newMockCartRepo())

	err := svc.Confirm(context.Background(), orderID, uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotPending)
}

func TestOrderService_Cancel(t *testing.T) {
	orderRepo := newMockOrderRepo()
	orderID := uuid.New()
	orderRepo.orders[orderID] = &model.Order{ID: orderID, Status: model.OrderStatusPending}
	svc := testOrderService(orderRepo, newMockCartRepo())

	require.NoError(t, svc.Cancel(context.Background(), orderID))

	order := orderRepo.orders[orderID]
	assert.Equal(t, model.OrderStatusCancelled, order.Status)
	assert.Nil(t, order.ConfirmedAt)
}
