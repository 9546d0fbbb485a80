package handler

import (
	"net/http"
	"strings"

	"anoa.com/datingapp/internal/modules/photo/dto"
	photo "anoa.com/datingapp/internal/modules/photo/service"
	"anoa.com/datingapp/pkg/response"
	"anoa.com/datingapp/pkg/validator"
	"github.com/gin-gonic/gin"
)

const maxPhotoSize = 10 << 20

type PhotoHandler struct {
	service photo.PhotoService
}

func NewPhotoHandler(service photo.PhotoService) *PhotoHandler {
	return &PhotoHandler{service: service}
}

func (h *PhotoHandler) UploadPhoto(c *gin.Context) {
	var req dto.UploadPhotoRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > maxPhotoSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be 10MB or smaller"})
		return
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be an image"})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer src.Close()

	created, err := h.service.Upload(c.Request.Context(), userID, dto.PhotoFile{
		Reader:   src,
		FileName: file.Filename,
	}, req.Description)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *PhotoHandler) GetPhoto(c *gin.Context) {
	userID, photoID, ok := ownerAndPhoto(c)
	if !ok {
		return
	}

	p, err := h.service.GetPhoto(c.Request.Context(), userID, photoID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *PhotoHandler) SetMainPhoto(c *gin.Context) {
	userID, photoID, ok := ownerAndPhoto(c)
	if !ok {
		return
	}

	if err := h.service.SetMain(c.Request.Context(), userID, photoID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PhotoHandler) DeletePhoto(c *gin.Context) {
	userID, photoID, ok := ownerAndPhoto(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, photoID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "photo deleted"})
}

func ownerAndPhoto(c *gin.Context) (uint, uint, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return 0, 0, false
	}

	photoID, err := response.ParamID(c, "photoId")
	if err != nil {
		response.ResponseError(c, err)
		return 0, 0, false
	}
	return userID, photoID, true
}
