package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"pontox/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError renders a service error as {"error", "code"} with its status.
// Anything else is logged and hidden behind a 500.
func respondError(c *gin.Context, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		c.JSON(svcErr.Status, svcErr)
		return
	}
	_ = c.Error(err)
	log.Printf("[http] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "erro interno", "code": "internal_error"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "invalid_request"})
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func pageOffset(page, limit int) int { return (page - 1) * limit }

func paged(c *gin.Context, data interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{"data": data, "total": total, "page": page, "limit": limit})
}

// paramID parses the :name path parameter, answering 400 when it is not a positive integer.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "id inválido")
		return 0, false
	}
	return uint(id), true
}
