package app

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	// Policy-level conditions, propagated unchanged to the caller.
	ErrUsageLimitExceeded   = errors.New("usage limit reached")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrSectionNotFound      = errors.New("section not found")
	ErrConversationNotFound = errors.New("conversation not found")
)
