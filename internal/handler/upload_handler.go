package handler

import (
	"net/http"
	"strings"

	"pontox/internal/middleware"
	"pontox/internal/service"

	"github.com/gin-gonic/gin"
)

const maxImageBytes = 8 << 20

type UploadHandler struct {
	spots *service.SpotService
}

func NewUploadHandler(spots *service.SpotService) *UploadHandler {
	return &UploadHandler{spots: spots}
}

// UploadSpotImage handles POST /admin/spots/:id/image (multipart field "file").
func (h *UploadHandler) UploadSpotImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "arquivo obrigatório")
		return
	}
	if file.Size > maxImageBytes {
		badRequest(c, "imagem maior que 8 MB")
		return
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		badRequest(c, "o arquivo deve ser uma imagem")
		return
	}
	f, err := file.Open()
	if err != nil {
		badRequest(c, "não foi possível ler o arquivo")
		return
	}
	defer f.Close()

	sp, err := h.spots.SetImage(c.Request.Context(), middleware.GetUserID(c), id, f, middleware.AuditMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sp)
}
