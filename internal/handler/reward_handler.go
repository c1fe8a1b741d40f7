package handler

import (
	"net/http"

	"pontox/internal/middleware"
	"pontox/internal/service"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

type RewardHandler struct {
	svc *service.RewardService
}

func NewRewardHandler(svc *service.RewardService) *RewardHandler {
	return &RewardHandler{svc: svc}
}

// Catalog handles GET /rewards.
func (h *RewardHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Catalog()})
}

// Redeem handles POST /rewards/:id/redeem. Retries carrying the same Idempotency-Key
// get the original redemption back with 200 instead of 201.
func (h *RewardHandler) Redeem(c *gin.Context) {
	key := c.GetHeader(idempotencyHeader)
	if len(key) > 64 {
		badRequest(c, "Idempotency-Key muito longa")
		return
	}
	res, err := h.svc.Redeem(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), key)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res)
}
