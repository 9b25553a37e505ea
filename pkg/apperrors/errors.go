package apperrors

import "errors"

var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrProposalNotFound      = errors.New("proposal not found")
	ErrVersionMismatch       = errors.New("version mismatch")
	ErrInvalidProposalState  = errors.New("proposal is not in a reviewable state")
	ErrDuplicateProposal     = errors.New("an active proposal already exists for this term")
	ErrMissingCanonical      = errors.New("synonym proposal requires a suggested canonical")
	ErrInvalidIdentifier     = errors.New("identifier contains characters outside the allowed set")
	ErrEmptyQuestion         = errors.New("question must not be empty")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrAutoApproveLimitReach = errors.New("daily auto-approval limit reached")
)
