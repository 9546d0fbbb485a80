package response

import (
	"encoding/json"
	"net/http"
	"strconv"

	"anoa.com/datingapp/pkg/apperror"
	"anoa.com/datingapp/pkg/logger"
	"anoa.com/datingapp/pkg/pagination"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRoles    = "roles"

	PaginationHeader = "Pagination"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uint, error) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return 0, apperror.Unauthorized("authorization required")
	}

	userID, ok := value.(uint)
	if !ok || userID == 0 {
		return 0, apperror.Unauthorized("invalid user id")
	}

	return userID, nil
}

// ParamID parses a positive numeric route parameter.
func ParamID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Generic("invalid " + name)
	}
	return uint(id), nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		logger.Error("internal error", "path", c.FullPath(), "error", err)
		c.JSON(code, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(code, gin.H{"error": apperror.Message(err)})
}

// SetPagination writes page metadata to the Pagination header.
func SetPagination(c *gin.Context, meta pagination.Meta) {
	encoded, err := json.Marshal(meta)
	if err != nil {
		logger.Warn("failed to encode pagination header", "error", err)
		return
	}
	c.Header(PaginationHeader, string(encoded))
	c.Header("Access-Control-Expose-Headers", PaginationHeader)
}
