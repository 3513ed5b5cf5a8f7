package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"servihub-chat/internal/domain"
	"servihub-chat/internal/repository"
	chaterrors "servihub-chat/pkg/errors"
)

// Identity is a verified (userId, role) pair.
type Identity struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

type AccessClaims struct {
	UserID string `json:"sub"`
	jwt.RegisteredClaims
}

// IdentityService resolves a credential token to an Identity. The same
// resolver backs both the optimistic connection handshake and the explicit
// authenticate event; for a given credential both paths see the same result.
type IdentityService struct {
	customers repository.CustomerStore
	providers repository.ProviderStore
	jwtSecret []byte
}

func NewIdentityService(customers repository.CustomerStore, providers repository.ProviderStore, jwtSecret []byte) *IdentityService {
	return &IdentityService{
		customers: customers,
		providers: providers,
		jwtSecret: jwtSecret,
	}
}

// Resolve verifies the token and looks the subject up in the customer store,
// falling back to the provider store. Returns ErrInvalidCredential when the
// token does not verify, ErrUnknownSubject when it verifies but no account
// exists under either store.
func (s *IdentityService) Resolve(ctx context.Context, token string) (Identity, error) {
	userID, err := s.parseSubject(token)
	if err != nil {
		return Identity{}, err
	}

	if _, err := s.customers.GetByID(ctx, userID); err == nil {
		return Identity{UserID: userID, Role: domain.RoleCustomer}, nil
	} else if !errors.Is(err, chaterrors.ErrNotFound) {
		return Identity{}, fmt.Errorf("customer lookup: %w", err)
	}

	if _, err := s.providers.GetByID(ctx, userID); err == nil {
		return Identity{UserID: userID, Role: domain.RoleProvider}, nil
	} else if !errors.Is(err, chaterrors.ErrNotFound) {
		return Identity{}, fmt.Errorf("provider lookup: %w", err)
	}

	return Identity{}, chaterrors.ErrUnknownSubject
}

func (s *IdentityService) parseSubject(token string) (string, error) {
	if token == "" {
		return "", chaterrors.ErrInvalidCredential
	}

	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return "", chaterrors.ErrInvalidCredential
	}
	if claims.UserID == "" {
		return "", chaterrors.ErrInvalidCredential
	}
	return claims.UserID, nil
}
