package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alluvi/go-storefront-api/internal/model"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	Count(ctx context.Context) (int, error)
}

type pgProfileRepo struct{ pool *pgxpool.Pool }

func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &pgProfileRepo{pool: pool}
}

func (r *pgProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	profile.ID = uuid.New()
	query := `INSERT INTO profiles (id, email, password_hash, full_name, is_admin, avatar_url, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		profile.ID, profile.Email, profile.Password, profile.FullName, profile.IsAdmin, profile.AvatarURL,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (r *pgProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `SELECT id, email, password_hash, full_name, is_admin, avatar_url, created_at, updated_at
			  FROM profiles WHERE id = $1`
	p := &model.Profile{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.Password, &p.FullName, &p.IsAdmin, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile by id: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	query := `SELECT id, email, password_hash, full_name, is_admin, avatar_url, created_at, updated_at
			  FROM profiles WHERE email = $1`
	p := &model.Profile{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&p.ID, &p.Email, &p.Password, &p.FullName, &p.IsAdmin, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return total, nil
}
