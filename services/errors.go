package services

import "errors"

// Shared errors used across services and the HTTP mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed       = errors.New("validation failed")
	ErrContestInvalidStatus   = errors.New("invalid contest status provided")
	ErrContestInvalidDeadline = errors.New("contest deadline must be in the future")
	ErrContestNotApproved     = errors.New("contest is not open for participation")
	ErrContestDeadlinePassed  = errors.New("contest deadline has passed")
	ErrPaymentInvalidAmount   = errors.New("payment amount must be at least one cent")
	ErrInvalidRole            = errors.New("invalid role provided")

	// Conflicts
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrAlreadyParticipating = errors.New("user already paid for this contest")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrPaymentRequired      = errors.New("a recorded payment is required before submitting")

	// Entity-specific not-found errors
	ErrUserNotFound       = errors.New("user not found")
	ErrContestNotFound    = errors.New("contest not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrWinnerNotFound     = errors.New("winner user not found")

	// External collaborators
	ErrUploaderUnavailable = errors.New("file upload backend is not configured")
	ErrPaymentGateway      = errors.New("payment gateway request failed")
)
