// README: Shared handler helpers; closed error-kind to HTTP status mapping.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoscoot/internal/http/middleware"
	"ecoscoot/internal/modules/reservation"
	"ecoscoot/internal/modules/ride"
	"ecoscoot/internal/modules/scooter"
	"ecoscoot/internal/modules/wallet"
	"ecoscoot/internal/types"
)

func userID(c *gin.Context) types.ID {
	return types.ID(c.GetString(middleware.UserIDKey))
}

// writeError maps module sentinel errors onto HTTP statuses. Statuses are
// chosen by error kind, never by message text.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reservation.ErrBadRequest),
		errors.Is(err, ride.ErrBadRequest),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, scooter.ErrInvalidStatus),
		errors.Is(err, scooter.ErrInvalidBattery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, wallet.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})

	case errors.Is(err, reservation.ErrNotOwner),
		errors.Is(err, ride.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, scooter.ErrNotFound),
		errors.Is(err, reservation.ErrNotFound),
		errors.Is(err, ride.ErrNotFound),
		errors.Is(err, wallet.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, reservation.ErrNotActive),
		errors.Is(err, reservation.ErrScooterUnavailable),
		errors.Is(err, reservation.ErrAlreadyReserved),
		errors.Is(err, reservation.ErrScooterLocked),
		errors.Is(err, ride.ErrNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
