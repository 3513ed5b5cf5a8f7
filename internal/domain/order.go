package domain

import "time"

// ServiceRequest is the booking record a conversation can be bound to.
// ProviderID is empty until a provider is assigned.
type ServiceRequest struct {
	ID         string
	CustomerID string
	ProviderID string
	Title      string
	Status     string
	CreatedAt  time.Time
}

// Bundle is a multi-party service order. Only the creator and the assigned
// provider take part in its conversation; joined participants do not.
type Bundle struct {
	ID             string
	CreatorID      string
	ProviderID     string
	Title          string
	Status         string
	ParticipantIDs []string
	CreatedAt      time.Time
}
