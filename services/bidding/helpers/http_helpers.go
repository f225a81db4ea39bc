package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/models"
	"bidding-engine/utils"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// SetActor stores the caller identity on the request context
func SetActor(c *gin.Context, a models.Actor) {
	c.Set(actorKey, a)
}

// ActorFrom returns the caller identity set by the identity middleware
func ActorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(models.Actor); ok {
			return a
		}
	}
	return models.Actor{}
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// specific errors whose text is safe to show to clients, most precise first
var publicErrors = []error{
	biddingerrors.ErrPledgeOutOfRange,
	biddingerrors.ErrInvalidBid,
	biddingerrors.ErrInvalidRoundParams,
	biddingerrors.ErrInvalidAuction,
	biddingerrors.ErrFeeMismatch,
	biddingerrors.ErrInvalidPhone,
	biddingerrors.ErrInvalidOrder,
	biddingerrors.ErrNotPurchasable,
	biddingerrors.ErrNotAuctionable,
	biddingerrors.ErrNotParticipant,
	biddingerrors.ErrRoundAlreadyClosed,
	biddingerrors.ErrRoundClosed,
	biddingerrors.ErrDuplicateParticipation,
	biddingerrors.ErrAuctionNotActive,
	biddingerrors.ErrAuctionNotDraft,
	biddingerrors.ErrPriorRoundStillOpen,
	biddingerrors.ErrInsufficientStock,
	biddingerrors.ErrInvalidTransition,
	biddingerrors.ErrOrderAlreadyPaid,
	biddingerrors.ErrOrderCancelled,
	biddingerrors.ErrPaymentAlreadyPending,
	biddingerrors.ErrPaymentResolved,
	biddingerrors.ErrAuctionNotFound,
	biddingerrors.ErrRoundNotFound,
	biddingerrors.ErrNoRounds,
	biddingerrors.ErrOrderNotFound,
	biddingerrors.ErrPaymentNotFound,
	biddingerrors.ErrParticipationNotFound,
	biddingerrors.ErrGatewayUnavailable,
	biddingerrors.ErrGatewayDeclined,
	biddingerrors.ErrStoreContention,
	biddingerrors.ErrDuplicateRecord,
	biddingerrors.ErrMissingIdentity,
	biddingerrors.ErrForbidden,
	biddingerrors.ErrBadCallbackSecret,
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	status := http.StatusInternalServerError
	switch biddingerrors.Class(err) {
	case biddingerrors.ErrValidation:
		status = http.StatusBadRequest
	case biddingerrors.ErrNotFound:
		status = http.StatusNotFound
	case biddingerrors.ErrStateConflict:
		status = http.StatusConflict
	case biddingerrors.ErrTransient:
		status = http.StatusServiceUnavailable
	case biddingerrors.ErrExternalFailure:
		status = http.StatusPaymentRequired
	case biddingerrors.ErrUnauthorized:
		status = http.StatusUnauthorized
		if errors.Is(err, biddingerrors.ErrForbidden) || errors.Is(err, biddingerrors.ErrBadCallbackSecret) {
			status = http.StatusForbidden
		}
	default:
		return status, "internal server error"
	}

	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return status, target.Error()
		}
	}
	return status, biddingerrors.Class(err).Error()
}

// RespondError writes the mapped error and logs it; server errors are logged
// at error level.
func RespondError(c *gin.Context, handlerName, action string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["error"] = err.Error()
	fields["status"] = status
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": "+action, fields)
		return
	}
	utils.Warn(handlerName+": "+action, fields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
