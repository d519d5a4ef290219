// README: Ride endpoints.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ecoscoot/internal/modules/ride"
	"ecoscoot/internal/types"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(rides *ride.Service) *RideHandler {
	return &RideHandler{rides: rides}
}

type rideResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	ScooterID        string     `json:"scooterId"`
	ReservationID    string     `json:"reservationId"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          *time.Time `json:"endedAt,omitempty"`
	DurationMinutes  int        `json:"durationMinutes,omitempty"`
	ActivationFee    int64      `json:"activationFee"`
	LastBilledMinute int        `json:"lastBilledMinute"`
	TotalCharged     int64      `json:"totalCharged"`
	Currency         string     `json:"currency"`
}

func toRideResponse(r *ride.Ride) rideResponse {
	return rideResponse{
		ID:               string(r.ID),
		UserID:           string(r.UserID),
		ScooterID:        string(r.ScooterID),
		ReservationID:    string(r.ReservationID),
		Status:           string(r.Status),
		StartedAt:        r.StartedAt,
		EndedAt:          r.EndedAt,
		DurationMinutes:  r.DurationMinutes,
		ActivationFee:    r.ActivationFee.Amount,
		LastBilledMinute: r.LastBilledMinute,
		TotalCharged:     r.TotalCharged.Amount,
		Currency:         r.TotalCharged.Currency,
	}
}

func (h *RideHandler) End(c *gin.Context) {
	r, total, err := h.rides.End(c.Request.Context(), ride.EndCommand{
		RideID: types.ID(c.Param("id")),
		UserID: userID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": toRideResponse(r), "totalPrice": total.Amount})
}

func (h *RideHandler) Get(c *gin.Context) {
	r, err := h.rides.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	if r.UserID != userID(c) {
		writeError(c, ride.ErrNotOwner)
		return
	}
	c.JSON(http.StatusOK, toRideResponse(r))
}

func (h *RideHandler) Me(c *gin.Context) {
	r, err := h.rides.ActiveByUser(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if r == nil {
		c.JSON(http.StatusOK, gin.H{"ride": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": toRideResponse(r)})
}

func (h *RideHandler) History(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	list, err := h.rides.History(c.Request.Context(), userID(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]rideResponse, 0, len(list))
	for i := range list {
		out = append(out, toRideResponse(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "rides": out})
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
