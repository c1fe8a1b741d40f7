package handler

import (
	"net/http"

	"pontox/internal/middleware"
	"pontox/internal/service"

	"github.com/gin-gonic/gin"
)

// MeHandler serves the authenticated user's own account, balance and history.
type MeHandler struct {
	accounts     *service.AccountService
	ledger       *service.LedgerService
	achievements *service.AchievementService
	rewards      *service.RewardService
	checkins     *service.CheckInService
}

func NewMeHandler(
	accounts *service.AccountService,
	ledger *service.LedgerService,
	achievements *service.AchievementService,
	rewards *service.RewardService,
	checkins *service.CheckInService,
) *MeHandler {
	return &MeHandler{
		accounts:     accounts,
		ledger:       ledger,
		achievements: achievements,
		rewards:      rewards,
		checkins:     checkins,
	}
}

func (h *MeHandler) GetProfile(c *gin.Context) {
	p, err := h.accounts.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProfile handles PATCH /me. Omitted fields are left unchanged.
func (h *MeHandler) UpdateProfile(c *gin.Context) {
	var req service.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.accounts.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *MeHandler) Dashboard(c *gin.Context) {
	d, err := h.accounts.Dashboard(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Points handles GET /me/points: balance, lifetime total and level progress.
func (h *MeHandler) Points(c *gin.Context) {
	p, err := h.accounts.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"points":          p.Points,
		"lifetime_points": p.LifetimePoints,
		"level":           p.Level,
		"level_progress":  p.LevelProgress,
	})
}

func (h *MeHandler) PointsHistory(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.ledger.History(c.Request.Context(), middleware.GetUserID(c), limit, pageOffset(page, limit))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, list, total, page, limit)
}

func (h *MeHandler) Achievements(c *gin.Context) {
	s, err := h.achievements.Summary(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *MeHandler) Redemptions(c *gin.Context) {
	list, err := h.rewards.ListMine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *MeHandler) CheckIns(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.checkins.History(c.Request.Context(), middleware.GetUserID(c), limit, pageOffset(page, limit))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, list, total, page, limit)
}
