// README: Wallet endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoscoot/internal/modules/wallet"
	"ecoscoot/internal/types"
)

type WalletHandler struct {
	wallet *wallet.Service
}

func NewWalletHandler(w *wallet.Service) *WalletHandler {
	return &WalletHandler{wallet: w}
}

func (h *WalletHandler) Balance(c *gin.Context) {
	balance, err := h.wallet.Balance(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance.Amount, "currency": balance.Currency})
}

func (h *WalletHandler) TopUp(c *gin.Context) {
	var input struct {
		Amount int64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.wallet.TopUp(c.Request.Context(), userID(c), types.PLN(input.Amount))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance.Amount, "currency": balance.Currency})
}
