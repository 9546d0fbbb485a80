package handler

import (
	"net/http"

	like "anoa.com/datingapp/internal/modules/like/service"
	"anoa.com/datingapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	service like.LikeService
}

func NewLikeHandler(service like.LikeService) *LikeHandler {
	return &LikeHandler{service: service}
}

func (h *LikeHandler) LikeUser(c *gin.Context) {
	userID, recipientID, ok := h.parties(c)
	if !ok {
		return
	}

	if err := h.service.AddLike(c.Request.Context(), userID, recipientID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user liked"})
}

func (h *LikeHandler) UnlikeUser(c *gin.Context) {
	userID, recipientID, ok := h.parties(c)
	if !ok {
		return
	}

	if err := h.service.RemoveLike(c.Request.Context(), userID, recipientID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user unliked"})
}

func (h *LikeHandler) parties(c *gin.Context) (uint, uint, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return 0, 0, false
	}

	recipientID, err := response.ParamID(c, "recipientId")
	if err != nil {
		response.ResponseError(c, err)
		return 0, 0, false
	}
	return userID, recipientID, true
}
