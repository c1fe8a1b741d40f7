package handler

import (
	"net/http"

	"pontox/internal/middleware"
	"pontox/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	svc *service.ReferralService
}

func NewReferralHandler(svc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{svc: svc}
}

// GetMyReferralCode returns the user's code with referral totals.
// GET /me/referral-code
func (h *ReferralHandler) GetMyReferralCode(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /me/referrals
func (h *ReferralHandler) GetMyReferrals(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": len(list)})
}

// GET /me/referral-code/share
func (h *ReferralHandler) ShareLinks(c *gin.Context) {
	links, err := h.svc.ShareLinks(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// Validate tells a signup form whether a code exists and whose it is.
// GET /referral-codes/:code
func (h *ReferralHandler) Validate(c *gin.Context) {
	u, err := h.svc.GetUserByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "code": u.Code(), "referrer_name": u.Name})
}

// Apply attaches a referral to an account created without one.
// POST /me/referral
func (h *ReferralHandler) Apply(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "código obrigatório")
		return
	}
	ref, err := h.svc.ProcessReferralCode(c.Request.Context(), middleware.GetUserID(c), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ref)
}
