package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/datingapp/internal/modules/admin/dto"
	adminService "anoa.com/datingapp/internal/modules/admin/service"
	photoService "anoa.com/datingapp/internal/modules/photo/service"
	"anoa.com/datingapp/pkg/response"
	"anoa.com/datingapp/pkg/validator"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	adminService adminService.AdminService
	photoService photoService.PhotoService
}

func NewAdminHandler(adminService adminService.AdminService, photoService photoService.PhotoService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		photoService: photoService,
	}
}

func (h *AdminHandler) GetUsersWithRoles(c *gin.Context) {
	users, err := h.adminService.GetUsersWithRoles(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) ExportUsersWithRoles(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.adminService.ExportUsersWithRoles(c.Request.Context(), &buf); err != nil {
		response.ResponseError(c, err)
		return
	}

	fileName := fmt.Sprintf("users-with-roles-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *AdminHandler) EditRoles(c *gin.Context) {
	var req dto.EditRolesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	roles, err := h.adminService.EditRoles(c.Request.Context(), c.Param("userName"), strings.Split(req.Roles, ","))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, roles)
}

func (h *AdminHandler) GetPhotosForModeration(c *gin.Context) {
	photos, err := h.photoService.ListForModeration(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, photos)
}

func (h *AdminHandler) ApprovePhoto(c *gin.Context) {
	photoID, err := response.ParamID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.photoService.Approve(c.Request.Context(), photoID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "photo approved"})
}

func (h *AdminHandler) RejectPhoto(c *gin.Context) {
	photoID, err := response.ParamID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.photoService.Reject(c.Request.Context(), photoID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "photo rejected"})
}
