package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"zecbay-auction/internal/auctionerrors"
	"zecbay-auction/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/engine errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrBidNotFound):
		return http.StatusNotFound, "bid not found"
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request details"
	case errors.Is(err, auctionerrors.ErrPriceNotPositive):
		return http.StatusBadRequest, "bid price must be positive"
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return http.StatusConflict, "auction is not active"
	case errors.Is(err, auctionerrors.ErrAlreadyStarted):
		return http.StatusConflict, "auction has already started"
	case errors.Is(err, auctionerrors.ErrAlreadyRegistered):
		return http.StatusConflict, "already registered for this auction"
	case errors.Is(err, auctionerrors.ErrNotRegistered):
		return http.StatusForbidden, "not registered for this auction"
	case errors.Is(err, auctionerrors.ErrNotBidOwner):
		return http.StatusForbidden, "bid belongs to a different bidder"
	case errors.Is(err, auctionerrors.ErrPriceNotLower):
		return http.StatusConflict, "bid price does not beat the current best price"
	case errors.Is(err, auctionerrors.ErrConsecutiveBid):
		return http.StatusConflict, "cannot place two bids in a row"
	case errors.Is(err, auctionerrors.ErrRebidTooSoon):
		return http.StatusTooManyRequests, "rebid cooldown has not elapsed"
	case errors.Is(err, auctionerrors.ErrBidLocked):
		return http.StatusConflict, "bid is locked for edit or delete"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
