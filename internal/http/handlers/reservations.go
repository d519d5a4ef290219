// README: Reservation endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecoscoot/internal/modules/reservation"
	"ecoscoot/internal/modules/ride"
	"ecoscoot/internal/types"
)

type ReservationHandler struct {
	reservations *reservation.Service
	rides        *ride.Service
}

func NewReservationHandler(reservations *reservation.Service, rides *ride.Service) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, rides: rides}
}

type reservationResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ScooterID string    `json:"scooterId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	ExpiresIn int       `json:"expiresIn,omitempty"`
}

func toReservationResponse(r *reservation.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:        string(r.ID),
		UserID:    string(r.UserID),
		ScooterID: string(r.ScooterID),
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
	if r.Status == reservation.StatusActive {
		if left := int(time.Until(r.ExpiresAt).Seconds()); left > 0 {
			resp.ExpiresIn = left
		}
	}
	return resp
}

func (h *ReservationHandler) Create(c *gin.Context) {
	var input struct {
		ScooterID string `json:"scooterId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.reservations.Create(c.Request.Context(), reservation.CreateCommand{
		UserID:    userID(c),
		ScooterID: types.ID(input.ScooterID),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReservationResponse(r))
}

func (h *ReservationHandler) Cancel(c *gin.Context) {
	err := h.reservations.Cancel(c.Request.Context(), reservation.CancelCommand{
		ReservationID: types.ID(c.Param("id")),
		UserID:        userID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ReservationHandler) Start(c *gin.Context) {
	r, err := h.rides.Start(c.Request.Context(), ride.StartCommand{
		ReservationID: types.ID(c.Param("id")),
		UserID:        userID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRideResponse(r))
}

func (h *ReservationHandler) Me(c *gin.Context) {
	r, err := h.reservations.ActiveByUser(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if r == nil {
		c.JSON(http.StatusOK, gin.H{"reservation": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": toReservationResponse(r)})
}

func (h *ReservationHandler) History(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	list, err := h.reservations.History(c.Request.Context(), userID(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]reservationResponse, 0, len(list))
	for i := range list {
		out = append(out, toReservationResponse(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "reservations": out})
}
