package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alluvi/go-storefront-api/internal/dto"
	"github.com/alluvi/go-storefront-api/internal/model"
)

type mockProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	return m.products[id], nil
}

func (m *mockProductRepo) List(_ context.Context, limit, offset int, search, sort, order string, activeOnly bool) ([]model.Product, int, error) {
	var all []model.Product
	for _, p := range m.products {
		if activeOnly && !p.IsActive {
			continue
		}
		all = append(all, *p)
	}
	return all, len(all), nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) Count(_ context.Context) (int, error) {
	return len(m.products), nil
}

func TestProductService_Create(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	resp, err := svc.Create(context.Background(), uuid.New(), dto.CreateProductRequest{
		Name: "Test", Price: decimal.NewFromFloat(9.99), StockQuantity: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "Test", resp.Name)
	assert.Equal(t, 100, resp.StockQuantity)
	assert.True(t, resp.IsActive)
}

func TestProductService_Create_InvalidDiscount(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	_, err := svc.Create(context.Background(), uuid.New(), dto.CreateProductRequest{
		Name: "Test", Price: decimal.NewFromFloat(9.99),
		HasPromotion: true, PromotionPercentage: decimal.NewFromInt(150),
	})
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestProductService_GetByID_NotFound(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_GetByID_EffectivePrice(t *testing.T) {
	repo := newMockProductRepo()
	id := uuid.New()
	repo.products[id] = &model.Product{
		ID: id, Name: "Discounted", Price: decimal.NewFromInt(200),
		HasPromotion: true, PromotionPercentage: decimal.NewFromInt(25),
	}
	svc := NewProductService(repo, nil)

	resp, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, resp.EffectivePrice.Equal(decimal.NewFromInt(150)),
		"expected 150, got %s", resp.EffectivePrice)
}

func TestProductService_Update_PartialFields(t *testing.T) {
	repo := newMockProductRepo()
	id := uuid.New()
	repo.products[id] = &model.Product{
		ID: id, Name: "Old", Description: "keep me",
		Price: decimal.NewFromInt(10), IsActive: true,
	}
	svc := NewProductService(repo, nil)

	name := "New"
	resp, err := svc.Update(context.Background(), id, dto.UpdateProductRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "New", resp.Name)
	assert.Equal(t, "keep me", resp.Description)
	assert.True(t, resp.Price.Equal(decimal.NewFromInt(10)))
}

func TestProductService_Update_InvalidDiscount(t *testing.T) {
	repo := newMockProductRepo()
	id := uuid.New()
	repo.products[id] = &model.Product{ID: id, Name: "X", Price: decimal.NewFromInt(10)}
	svc := NewProductService(repo, nil)

	promo := true
	pct := decimal.NewFromInt(-5)
	_, err := svc.Update(context.Background(), id, dto.UpdateProductRequest{
		HasPromotion: &promo, PromotionPercentage: &pct,
	})
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestProductService_Delete(t *testing.T) {
	repo := newMockProductRepo()
	id := uuid.New()
	repo.products[id] = &model.Product{ID: id}
	svc := NewProductService(repo, nil)
	err := svc.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, repo.products)
}
