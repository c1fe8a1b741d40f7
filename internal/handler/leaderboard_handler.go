package handler

import (
	"net/http"
	"strconv"

	"pontox/internal/service"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	svc *service.LeaderboardService
}

func NewLeaderboardHandler(svc *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc}
}

// Get handles GET /leaderboard?timeframe=all|week|month|year&limit=.
func (h *LeaderboardHandler) Get(c *gin.Context) {
	tf := c.DefaultQuery("timeframe", "all")
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.svc.Leaderboard(c.Request.Context(), tf, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeframe": tf, "data": list})
}
