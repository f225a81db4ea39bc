package biddingerrors

import "errors"

// Error categories. Every specific error below unwraps to exactly one of
// these, so callers can match either the precise cause or its class.
var (
	ErrValidation      = errors.New("validation error")
	ErrStateConflict   = errors.New("state conflict")
	ErrNotFound        = errors.New("not found")
	ErrTransient       = errors.New("transient error")
	ErrExternalFailure = errors.New("external failure")
	ErrUnauthorized    = errors.New("unauthorized")
)

type classified struct {
	msg   string
	class error
}

func (e *classified) Error() string { return e.msg }
func (e *classified) Unwrap() error { return e.class }

func newError(class error, msg string) error {
	return &classified{msg: msg, class: class}
}

// Class returns the category err belongs to, or nil when it is unclassified.
func Class(err error) error {
	for _, class := range []error{ErrValidation, ErrStateConflict, ErrNotFound, ErrTransient, ErrExternalFailure, ErrUnauthorized} {
		if errors.Is(err, class) {
			return class
		}
	}
	return nil
}

// IsTransient reports whether err is eligible for automatic retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Repository-level errors
var (
	ErrAuctionNotFound       = newError(ErrNotFound, "auction not found")
	ErrRoundNotFound         = newError(ErrNotFound, "round not found")
	ErrNoRounds              = newError(ErrNotFound, "auction has no rounds")
	ErrOrderNotFound         = newError(ErrNotFound, "order not found")
	ErrPaymentNotFound       = newError(ErrNotFound, "payment not found")
	ErrParticipationNotFound = newError(ErrNotFound, "participation not found")
	ErrCallbackNotParked     = newError(ErrNotFound, "no parked callback")
	ErrStoreContention       = newError(ErrTransient, "store contention, retry")
	ErrDuplicateRecord       = newError(ErrStateConflict, "record already exists")
)

// business logic errors
var (
	ErrInvalidBid         = newError(ErrValidation, "invalid bid")
	ErrPledgeOutOfRange   = newError(ErrValidation, "pledge amount out of range")
	ErrInvalidRoundParams = newError(ErrValidation, "invalid round parameters")
	ErrInvalidAuction     = newError(ErrValidation, "invalid auction")
	ErrFeeMismatch        = newError(ErrValidation, "fee does not match round participation fee")
	ErrInvalidPhone       = newError(ErrValidation, "invalid phone number")
	ErrInvalidOrder       = newError(ErrValidation, "invalid order")
	ErrNotPurchasable     = newError(ErrValidation, "product is not available for direct purchase")
	ErrNotAuctionable     = newError(ErrValidation, "product is not sold by auction")

	ErrNotParticipant         = newError(ErrStateConflict, "user has not paid the participation fee for this round")
	ErrRoundClosed            = newError(ErrStateConflict, "round is closed")
	ErrRoundAlreadyClosed     = newError(ErrStateConflict, "round already closed")
	ErrDuplicateParticipation = newError(ErrStateConflict, "user already participates in this round")
	ErrAuctionNotActive       = newError(ErrStateConflict, "auction is not active")
	ErrAuctionNotDraft        = newError(ErrStateConflict, "auction is not a draft")
	ErrPriorRoundStillOpen    = newError(ErrStateConflict, "previous round is still open")
	ErrInsufficientStock      = newError(ErrStateConflict, "insufficient stock")
	ErrInvalidTransition      = newError(ErrStateConflict, "invalid status transition")
	ErrOrderAlreadyPaid       = newError(ErrStateConflict, "order is already paid")
	ErrOrderCancelled         = newError(ErrStateConflict, "order is cancelled")
	ErrPaymentAlreadyPending  = newError(ErrStateConflict, "payment already in progress")
	ErrPaymentResolved        = newError(ErrStateConflict, "payment already resolved")
)

// gateway errors
var (
	ErrGatewayUnavailable = newError(ErrTransient, "payment gateway unavailable")
	ErrGatewayDeclined    = newError(ErrExternalFailure, "payment gateway declined the charge")
	ErrBadCallbackSecret  = newError(ErrUnauthorized, "callback secret mismatch")
)

// caller identity errors
var (
	ErrMissingIdentity = newError(ErrUnauthorized, "missing user identity")
	ErrForbidden       = newError(ErrUnauthorized, "admin role required")
)
