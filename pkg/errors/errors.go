package chaterrors

import "errors"

// Auth errors
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnknownSubject    = errors.New("unknown subject")
	ErrAuthRequired      = errors.New("authentication required")
)

// Conversation resolution errors
var (
	ErrInvalidReference = errors.New("invalid parent reference")
	ErrNotFound         = errors.New("not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrAlreadyExists    = errors.New("already exists")
)

// Message pipeline errors
var (
	ErrTemplateNotFound        = errors.New("quick chat template not found")
	ErrConversationUnavailable = errors.New("conversation storage unavailable")
)
