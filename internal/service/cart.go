package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alluvi/go-storefront-api/internal/dto"
	"github.com/alluvi/go-storefront-api/internal/model"
	"github.com/alluvi/go-storefront-api/internal/repository"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrWrongCart        = errors.New("item does not belong to this cart")
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// ItemPrice is the line total: the promotion-adjusted unit price times the
// quantity. A dangling product reference prices to zero.
func ItemPrice(item *model.CartItem) decimal.Decimal {
	if item.Product == nil {
		return decimal.Zero
	}
	return item.Product.EffectivePrice().Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// CartTotal sums line totals over the whole cart.
func CartTotal(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(ItemPrice(&items[i]))
	}
	return total
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}

	resp := &dto.CartResponse{Items: make([]dto.CartItemResponse, 0, len(items)), Total: CartTotal(items)}
	for i := range items {
		item := &items[i]
		line := dto.CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			ItemTotal: ItemPrice(item),
		}
		if item.Product != nil {
			p := toProductResponse(item.Product)
			line.Product = &p
		}
		resp.Items = append(resp.Items, line)
	}
	return resp, nil
}

// AddItem merges into an existing (user, product) line, incrementing its
// quantity; a missing line is inserted. Stock is not capped at this layer.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}

	return s.cartRepo.AddItem(ctx, &model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	item, err := s.cartRepo.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get cart item: %w", err)
	}
	if item == nil {
		return ErrCartItemNotFound
	}
	if item.UserID != userID {
		return ErrWrongCart
	}
	return s.cartRepo.UpdateQuantity(ctx, itemID, quantity)
}

func (s *CartService) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.cartRepo.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get cart item: %w", err)
	}
	if item == nil {
		return ErrCartItemNotFound
	}
	if item.UserID != userID {
		return ErrWrongCart
	}
	return s.cartRepo.DeleteItem(ctx, itemID)
}
