package handler

import (
	"net/http"
	"strconv"

	"pontox/internal/middleware"
	"pontox/internal/service"

	"github.com/gin-gonic/gin"
)

// SpotHandler serves tourist spots, check-ins and reviews.
type SpotHandler struct {
	spots    *service.SpotService
	checkins *service.CheckInService
	reviews  *service.ReviewService
}

func NewSpotHandler(spots *service.SpotService, checkins *service.CheckInService, reviews *service.ReviewService) *SpotHandler {
	return &SpotHandler{spots: spots, checkins: checkins, reviews: reviews}
}

func (h *SpotHandler) List(c *gin.Context) {
	list, err := h.spots.List(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// Nearby handles GET /spots/nearby?lat=&lng=&radius_km=.
func (h *SpotHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		respondError(c, service.ErrInvalidCoordinates)
		return
	}
	radius, _ := strconv.ParseFloat(c.DefaultQuery("radius_km", "0"), 64)
	list, err := h.checkins.Nearby(c.Request.Context(), lat, lng, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *SpotHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sp, err := h.spots.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

// CheckIn handles POST /spots/:id/checkin. Coordinates are optional; when present
// the user must be within the configured radius.
func (h *SpotHandler) CheckIn(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	var at *service.Coordinates
	if req.Latitude != nil || req.Longitude != nil {
		if req.Latitude == nil || req.Longitude == nil {
			respondError(c, service.ErrInvalidCoordinates)
			return
		}
		at = &service.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	res, err := h.checkins.CheckIn(c.Request.Context(), middleware.GetUserID(c), id, at)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *SpotHandler) Reviews(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, limit := parsePagination(c)
	res, err := h.reviews.ListBySpot(c.Request.Context(), id, limit, pageOffset(page, limit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":           res.Reviews,
		"total":          res.Total,
		"average_rating": res.AverageRating,
		"page":           page,
		"limit":          limit,
	})
}

func (h *SpotHandler) CreateReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidRating)
		return
	}
	res, err := h.reviews.Create(c.Request.Context(), middleware.GetUserID(c), id, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
