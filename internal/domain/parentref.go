package domain

import (
	chaterrors "servihub-chat/pkg/errors"
)

// ParentKind tags the entity a conversation hangs off.
type ParentKind string

const (
	ParentServiceRequest ParentKind = "service_request"
	ParentBundle         ParentKind = "bundle"
)

// ParentRef identifies the single parent entity of a conversation. A
// conversation is bound to exactly one service request or exactly one
// bundle, never both and never neither.
type ParentRef struct {
	Kind ParentKind
	ID   string
}

func ServiceRequestRef(id string) ParentRef {
	return ParentRef{Kind: ParentServiceRequest, ID: id}
}

func BundleRef(id string) ParentRef {
	return ParentRef{Kind: ParentBundle, ID: id}
}

// NewParentRef builds a ParentRef from the wire shape {requestId?, bundleId?}.
// Exactly one of the two must be set.
func NewParentRef(requestID, bundleID string) (ParentRef, error) {
	switch {
	case requestID != "" && bundleID != "":
		return ParentRef{}, chaterrors.ErrInvalidReference
	case requestID != "":
		return ServiceRequestRef(requestID), nil
	case bundleID != "":
		return BundleRef(bundleID), nil
	default:
		return ParentRef{}, chaterrors.ErrInvalidReference
	}
}

func (r ParentRef) String() string {
	return string(r.Kind) + ":" + r.ID
}
