package domain

import "time"

// Role partitions the account space: customers and providers live in
// separate stores and a user id is only meaningful together with its role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleProvider
}

// Customer is a read-only projection of the marketplace customer record.
type Customer struct {
	ID        string
	Name      string
	Email     string
	IsActive  bool
	CreatedAt time.Time
}

// Provider is a read-only projection of the marketplace provider record.
type Provider struct {
	ID        string
	Name      string
	Email     string
	IsActive  bool
	CreatedAt time.Time
}
