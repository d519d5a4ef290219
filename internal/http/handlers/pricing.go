// README: Pricing endpoints; the PUT is an admin operation.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoscoot/internal/modules/pricing"
	"ecoscoot/internal/types"
)

type PricingHandler struct {
	pricing *pricing.Service
}

func NewPricingHandler(p *pricing.Service) *PricingHandler {
	return &PricingHandler{pricing: p}
}

func (h *PricingHandler) Get(c *gin.Context) {
	p, err := h.pricing.Current(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PricingHandler) Put(c *gin.Context) {
	var input struct {
		ActivationFee    int64 `json:"activationFee" binding:"min=0"`
		PerMinuteRate    int64 `json:"perMinuteRate" binding:"min=0"`
		MinimumRidePrice int64 `json:"minimumRidePrice" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.pricing.Set(c.Request.Context(), pricing.Pricing{
		ActivationFee:    types.PLN(input.ActivationFee),
		PerMinuteRate:    types.PLN(input.PerMinuteRate),
		MinimumRidePrice: types.PLN(input.MinimumRidePrice),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
