package handler

import (
	"net/http"
	"strconv"
	"strings"

	"pontox/internal/middleware"
	"pontox/internal/repository"
	"pontox/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the back-office under /admin.
type AdminHandler struct {
	admin        *service.AdminService
	stats        *service.StatsService
	settings     *service.SettingsService
	rewards      *service.RewardService
	spots        *service.SpotService
	achievements *service.AchievementService
}

func NewAdminHandler(
	admin *service.AdminService,
	stats *service.StatsService,
	settings *service.SettingsService,
	rewards *service.RewardService,
	spots *service.SpotService,
	achievements *service.AchievementService,
) *AdminHandler {
	return &AdminHandler{
		admin:        admin,
		stats:        stats,
		settings:     settings,
		rewards:      rewards,
		spots:        spots,
		achievements: achievements,
	}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	d, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Analytics handles GET /admin/analytics?period=daily|weekly|monthly&points=N.
func (h *AdminHandler) Analytics(c *gin.Context) {
	period := c.DefaultQuery("period", service.PeriodDaily)
	n, _ := strconv.Atoi(c.Query("points"))
	series, err := h.stats.Activity(c.Request.Context(), period, n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "data": series})
}

// ListUsers handles GET /admin/users?search=&level=&role=.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	users, total, err := h.admin.ListUsers(c.Request.Context(), repository.UserFilter{
		Search: c.Query("search"),
		Level:  c.Query("level"),
		Role:   strings.ToUpper(c.Query("role")),
		Limit:  limit,
		Offset: pageOffset(page, limit),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, users, total, page, limit)
}

// GetUser handles GET /admin/users/:id.
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := h.admin.UserDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// AdjustPoints handles POST /admin/users/:id/points.
func (h *AdminHandler) AdjustPoints(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Points      int64  `json:"points" binding:"required"`
		Description string `json:"description" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrZeroPoints)
		return
	}
	entry, err := h.admin.AdjustPoints(c.Request.Context(), middleware.GetUserID(c), id, req.Points, req.Description, middleware.AuditMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Transactions handles GET /admin/transactions?user_id=&reason=.
func (h *AdminHandler) Transactions(c *gin.Context) {
	page, limit := parsePagination(c)
	f := repository.TransactionFilter{Reason: c.Query("reason"), Limit: limit, Offset: pageOffset(page, limit)}
	if v := c.Query("user_id"); v != "" {
		uid, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			badRequest(c, "user_id inválido")
			return
		}
		f.UserID = uint(uid)
	}
	list, total, err := h.admin.Transactions(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, list, total, page, limit)
}

// Referrals handles GET /admin/referrals?status=.
func (h *AdminHandler) Referrals(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.admin.Referrals(c.Request.Context(), c.Query("status"), limit, pageOffset(page, limit))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, list, total, page, limit)
}

// Redemptions handles GET /admin/redemptions?status=active|used|expired.
func (h *AdminHandler) Redemptions(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.rewards.List(c.Request.Context(), c.Query("status"), limit, pageOffset(page, limit))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, list, total, page, limit)
}

// UseRedemption handles POST /admin/redemptions/:code/use when a voucher is presented.
func (h *AdminHandler) UseRedemption(c *gin.Context) {
	r, err := h.rewards.MarkUsed(c.Request.Context(), middleware.GetUserID(c), c.Param("code"), middleware.AuditMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ListSpots handles GET /admin/spots, inactive spots included.
func (h *AdminHandler) ListSpots(c *gin.Context) {
	list, err := h.spots.List(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *AdminHandler) CreateSpot(c *gin.Context) {
	var req service.SpotInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sp, err := h.spots.Create(c.Request.Context(), middleware.GetUserID(c), req, middleware.AuditMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sp)
}

func (h *AdminHandler) UpdateSpot(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.SpotInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sp, err := h.spots.Update(c.Request.Context(), middleware.GetUserID(c), id, req, middleware.AuditMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

// DeleteSpot handles DELETE /admin/spots/:id. Visited spots are deactivated instead.
func (h *AdminHandler) DeleteSpot(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	deactivated, err := h.spots.Delete(c.Request.Context(), middleware.GetUserID(c), id, middleware.AuditMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": !deactivated, "deactivated": deactivated})
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	cfg, err := h.settings.PointsConfig(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateSettings handles PUT /admin/settings with a partial {key: value} map.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req map[string]int64
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidSetting)
		return
	}
	ctx := c.Request.Context()
	if err := h.settings.Update(ctx, middleware.GetUserID(c), req, middleware.AuditMeta(c)); err != nil {
		respondError(c, err)
		return
	}
	cfg, err := h.settings.PointsConfig(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Reconcile handles POST /admin/reconcile and reports the balances it repaired.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	drifts, err := h.admin.Reconcile(c.Request.Context(), middleware.GetUserID(c), middleware.AuditMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repaired": len(drifts), "drifts": drifts})
}

func (h *AdminHandler) AchievementRates(c *gin.Context) {
	rates, err := h.achievements.Rates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rates})
}

func (h *AdminHandler) AuditLogs(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.admin.AuditLogs(c.Request.Context(), limit, pageOffset(page, limit))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, list, total, page, limit)
}
