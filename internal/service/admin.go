package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alluvi/go-storefront-api/internal/dto"
	"github.com/alluvi/go-storefront-api/internal/model"
	"github.com/alluvi/go-storefront-api/internal/repository"
)

type AdminService struct {
	profileRepo repository.ProfileRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	chatRepo    repository.ChatRepository
}

func NewAdminService(
	profileRepo repository.ProfileRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	chatRepo repository.ChatRepository,
) *AdminService {
	return &AdminService{
		profileRepo: profileRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		chatRepo:    chatRepo,
	}
}

// Dashboard gathers the back-office headline numbers. Counts come from COUNT
// queries; revenue and the pending tally reduce over the fetched order rows,
// counting only confirmed orders toward revenue.
func (s *AdminService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	users, err := s.profileRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	products, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	totals, err := s.orderRepo.ListTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list order totals: %w", err)
	}
	unread, err := s.chatRepo.CountUnread(ctx)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}

	revenue := decimal.Zero
	pending := 0
	for _, t := range totals {
		switch t.Status {
		case model.OrderStatusConfirmed:
			revenue = revenue.Add(t.TotalAmount)
		case model.OrderStatusPending:
			pending++
		}
	}

	return &dto.DashboardResponse{
		TotalUsers:     users,
		TotalProducts:  products,
		TotalOrders:    len(totals),
		PendingOrders:  pending,
		TotalRevenue:   revenue,
		UnreadMessages: unread,
	}, nil
}
