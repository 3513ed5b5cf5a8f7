package repository

import (
	"context"
	"database/sql"
	"errors"

	"servihub-chat/internal/domain"
	chaterrors "servihub-chat/pkg/errors"
)

type PostgresServiceRequestStore struct {
	db *sql.DB
}

func NewServiceRequestStore(db *sql.DB) ServiceRequestStore {
	return &PostgresServiceRequestStore{db: db}
}

func (s *PostgresServiceRequestStore) GetByID(ctx context.Context, id string) (domain.ServiceRequest, error) {
	var (
		r        domain.ServiceRequest
		provider sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, customer_id, provider_id, title, status, created_at
		 FROM service_requests WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.CustomerID, &provider, &r.Title, &r.Status, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ServiceRequest{}, chaterrors.ErrNotFound
		}
		return domain.ServiceRequest{}, err
	}
	r.ProviderID = nullToString(provider)
	return r, nil
}

type PostgresBundleStore struct {
	db *sql.DB
}

func NewBundleStore(db *sql.DB) BundleStore {
	return &PostgresBundleStore{db: db}
}

func (s *PostgresBundleStore) GetByID(ctx context.Context, id string) (domain.Bundle, error) {
	var (
		b        domain.Bundle
		provider sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, creator_id, provider_id, title, status, created_at
		 FROM bundles WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.CreatorID, &provider, &b.Title, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Bundle{}, chaterrors.ErrNotFound
		}
		return domain.Bundle{}, err
	}
	b.ProviderID = nullToString(provider)

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM bundle_participants WHERE bundle_id = $1`, id)
	if err != nil {
		return domain.Bundle{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return domain.Bundle{}, err
		}
		b.ParticipantIDs = append(b.ParticipantIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return domain.Bundle{}, err
	}

	return b, nil
}
