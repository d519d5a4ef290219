// README: Health and system status endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecoscoot/internal/cache"
)

type SystemHandler struct {
	db    *pgxpool.Pool
	locks cache.LockStore
}

func NewSystemHandler(db *pgxpool.Pool, locks cache.LockStore) *SystemHandler {
	return &SystemHandler{db: db, locks: locks}
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports the state of the backing stores. The fast path is optional
// and its absence is not an error.
func (h *SystemHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	dbOK := h.db.Ping(ctx) == nil
	status := http.StatusOK
	if !dbOK {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"database": dbOK,
		"fastPath": h.locks.Enabled(),
	})
}
