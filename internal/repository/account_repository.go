package repository

import (
	"context"
	"database/sql"
	"errors"

	"servihub-chat/internal/domain"
	chaterrors "servihub-chat/pkg/errors"
)

// The account tables belong to the marketplace CRUD service; this side only
// reads them to verify token subjects.

type PostgresCustomerStore struct {
	db *sql.DB
}

func NewCustomerStore(db *sql.DB) CustomerStore {
	return &PostgresCustomerStore{db: db}
}

func (s *PostgresCustomerStore) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_active, created_at FROM customers WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, chaterrors.ErrNotFound
		}
		return domain.Customer{}, err
	}
	return c, nil
}

type PostgresProviderStore struct {
	db *sql.DB
}

func NewProviderStore(db *sql.DB) ProviderStore {
	return &PostgresProviderStore{db: db}
}

func (s *PostgresProviderStore) GetByID(ctx context.Context, id string) (domain.Provider, error) {
	var p domain.Provider
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_active, created_at FROM providers WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Provider{}, chaterrors.ErrNotFound
		}
		return domain.Provider{}, err
	}
	return p, nil
}
