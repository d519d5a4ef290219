// README: Scooter inventory endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecoscoot/internal/modules/scooter"
	"ecoscoot/internal/types"
)

type ScooterHandler struct {
	scooters *scooter.Service
}

func NewScooterHandler(s *scooter.Service) *ScooterHandler {
	return &ScooterHandler{scooters: s}
}

type scooterResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Status    string    `json:"status"`
	Battery   int       `json:"battery"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toScooterResponse(s *scooter.Scooter) scooterResponse {
	return scooterResponse{
		ID:        string(s.ID),
		Code:      s.Code,
		Status:    string(s.Status),
		Battery:   s.Battery,
		Lat:       s.Lat,
		Lng:       s.Lng,
		UpdatedAt: s.UpdatedAt,
	}
}

func (h *ScooterHandler) List(c *gin.Context) {
	list, err := h.scooters.List(c.Request.Context(), intQuery(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]scooterResponse, 0, len(list))
	for i := range list {
		out = append(out, toScooterResponse(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "scooters": out})
}

func (h *ScooterHandler) Get(c *gin.Context) {
	s, err := h.scooters.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toScooterResponse(s))
}

func (h *ScooterHandler) SetStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.scooters.SetStatus(c.Request.Context(), types.ID(c.Param("id")), scooter.Status(input.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ScooterHandler) SetBattery(c *gin.Context) {
	var input struct {
		Battery *int `json:"battery" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.scooters.SetBattery(c.Request.Context(), types.ID(c.Param("id")), *input.Battery)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
