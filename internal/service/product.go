package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/alluvi/go-storefront-api/internal/dto"
	"github.com/alluvi/go-storefront-api/internal/model"
	"github.com/alluvi/go-storefront-api/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidDiscount = errors.New("promotion percentage must be between 0 and 100")
)

const productCacheTTL = 60 * time.Second

type ProductService struct {
	productRepo repository.ProductRepository
	redisClient *redis.Client
}

func NewProductService(productRepo repository.ProductRepository, redisClient *redis.Client) *ProductService {
	return &ProductService{productRepo: productRepo, redisClient: redisClient}
}

func validDiscount(pct decimal.Decimal) bool {
	return pct.GreaterThanOrEqual(decimal.Zero) && pct.LessThanOrEqual(decimal.NewFromInt(100))
}

func (s *ProductService) Create(ctx context.Context, createdBy uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.HasPromotion && !validDiscount(req.PromotionPercentage) {
		return nil, ErrInvalidDiscount
	}

	product := &model.Product{
		Name:                req.Name,
		Description:         req.Description,
		Price:               req.Price,
		HasPromotion:        req.HasPromotion,
		PromotionPercentage: req.PromotionPercentage,
		MainImageURL:        req.MainImageURL,
		SecondaryImage1URL:  req.SecondaryImage1URL,
		SecondaryImage2URL:  req.SecondaryImage2URL,
		StockQuantity:       req.StockQuantity,
		IsActive:            true,
		CreatedBy:           createdBy,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	cacheKey := "product:" + id.String()

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := toProductResponse(product)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}

	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	offset := (req.Page - 1) * req.Limit
	products, total, err := s.productRepo.List(ctx, req.Limit, offset, req.Search, req.Sort, req.Order, req.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	var items []dto.ProductResponse
	for _, p := range products {
		items = append(items, toProductResponse(&p))
	}

	return &dto.ProductListResponse{Products: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.HasPromotion != nil {
		product.HasPromotion = *req.HasPromotion
	}
	if req.PromotionPercentage != nil {
		product.PromotionPercentage = *req.PromotionPercentage
	}
	if req.MainImageURL != nil {
		product.MainImageURL = *req.MainImageURL
	}
	if req.SecondaryImage1URL != nil {
		product.SecondaryImage1URL = *req.SecondaryImage1URL
	}
	if req.SecondaryImage2URL != nil {
		product.SecondaryImage2URL = *req.SecondaryImage2URL
	}
	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if product.HasPromotion && !validDiscount(product.PromotionPercentage) {
		return nil, ErrInvalidDiscount
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, "product:"+id.String())
	}
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:                  p.ID,
		Name:                p.Name,
		Description:         p.Description,
		Price:               p.Price,
		HasPromotion:        p.HasPromotion,
		PromotionPercentage: p.PromotionPercentage,
		EffectivePrice:      p.EffectivePrice(),
		MainImageURL:        p.MainImageURL,
		SecondaryImage1URL:  p.SecondaryImage1URL,
		SecondaryImage2URL:  p.SecondaryImage2URL,
		StockQuantity:       p.StockQuantity,
		IsActive:            p.IsActive,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}
