package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alluvi/go-storefront-api/internal/dto"
	"github.com/alluvi/go-storefront-api/internal/model"
)

type mockProfileRepo struct {
	byEmail map[string]*model.Profile
	byID    map[uuid.UUID]*model.Profile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{byEmail: make(map[string]*model.Profile), byID: make(map[uuid.UUID]*model.Profile)}
}

func (m *mockProfileRepo) Create(_ context.Context, profile *model.Profile) error {
	profile.ID = uuid.New()
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = time.Now()
	m.byEmail[profile.Email] = profile
	m.byID[profile.ID] = profile
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	return m.byID[id], nil
}

func (m *mockProfileRepo) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
	return m.byEmail[email], nil
}

func (m *mockProfileRepo) Count(_ context.Context) (int, error) {
	return len(m.byID), nil
}

func TestAuthService_Register(t *testing.T) {
	repo := newMockProfileRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "test@example.com", Password: "password123", FullName: "John Doe",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "test@example.com", resp.User.Email)
	assert.False(t, resp.User.IsAdmin)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newMockProfileRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	repo.byEmail["test@example.com"] = &model.Profile{Email: "test@example.com"}

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "test@example.com", Password: "password123", FullName: "John Doe",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	repo := newMockProfileRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.byEmail["test@example.com"] = &model.Profile{
		ID: uuid.New(), Email: "test@example.com", Password: string(hashed),
	}

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "test@example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newMockProfileRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.byEmail["test@example.com"] = &model.Profile{
		ID: uuid.New(), Email: "test@example.com", Password: string(hashed),
	}

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "test@example.com", Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := NewAuthService(newMockProfileRepo(), "test-secret", time.Hour)

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "nobody@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
