package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"servihub-chat/internal/domain"
	chaterrors "servihub-chat/pkg/errors"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, subject string, expiresIn time.Duration) string {
	t.Helper()
	claims := AccessClaims{
		UserID: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newIdentityFixture() *IdentityService {
	customers := &fakeCustomerStore{customers: map[string]domain.Customer{
		"cust-1": {ID: "cust-1", Name: "Ada"},
	}}
	providers := &fakeProviderStore{providers: map[string]domain.Provider{
		"prov-1": {ID: "prov-1", Name: "Fixit Ltd"},
	}}
	return NewIdentityService(customers, providers, testSecret)
}

func TestResolveCustomer(t *testing.T) {
	svc := newIdentityFixture()

	ident, err := svc.Resolve(context.Background(), signToken(t, testSecret, "cust-1", time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ident.UserID != "cust-1" || ident.Role != domain.RoleCustomer {
		t.Errorf("got %+v, want cust-1/customer", ident)
	}
}

func TestResolveProvider(t *testing.T) {
	svc := newIdentityFixture()

	ident, err := svc.Resolve(context.Background(), signToken(t, testSecret, "prov-1", time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ident.UserID != "prov-1" || ident.Role != domain.RoleProvider {
		t.Errorf("got %+v, want prov-1/provider", ident)
	}
}

func TestResolveInvalidCredential(t *testing.T) {
	svc := newIdentityFixture()
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong secret", signToken(t, []byte("other-secret"), "cust-1", time.Hour)},
		{"expired token", signToken(t, testSecret, "cust-1", -time.Hour)},
		{"empty subject", signToken(t, testSecret, "", time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Resolve(ctx, tt.token)
			if !errors.Is(err, chaterrors.ErrInvalidCredential) {
				t.Fatalf("expected ErrInvalidCredential, got %v", err)
			}
		})
	}
}

func TestResolveUnknownSubject(t *testing.T) {
	svc := newIdentityFixture()

	_, err := svc.Resolve(context.Background(), signToken(t, testSecret, "ghost-1", time.Hour))
	if !errors.Is(err, chaterrors.ErrUnknownSubject) {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestResolveRejectsUnexpectedAlgorithm(t *testing.T) {
	svc := newIdentityFixture()

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{UserID: "cust-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("build none token: %v", err)
	}

	_, err = svc.Resolve(context.Background(), unsigned)
	if !errors.Is(err, chaterrors.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestResolveStoreFailureIsNotUnknownSubject(t *testing.T) {
	customers := &fakeCustomerStore{err: errors.New("postgres down")}
	providers := &fakeProviderStore{}
	svc := NewIdentityService(customers, providers, testSecret)

	_, err := svc.Resolve(context.Background(), signToken(t, testSecret, "cust-1", time.Hour))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, chaterrors.ErrUnknownSubject) {
		t.Fatal("a store failure must not masquerade as an unknown subject")
	}
}
