package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/financas-api/services"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/utils"
)

// respondError maps service and storage errors to an HTTP status and a
// {"error": ...} body. notFound is the message used for storage.ErrNotFound.
func respondError(c *gin.Context, err error, notFound string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrPhoneTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTOTPAlreadyEnabled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
	case errors.Is(err, services.ErrTOTPRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "requires_2fa": true})
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidTOTP),
		errors.Is(err, services.ErrInvalidSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrResetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrResetCodeInvalid),
		errors.Is(err, services.ErrResetExpired),
		errors.Is(err, services.ErrResetUsed),
		errors.Is(err, services.ErrTOTPNotSetup):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrResetAttemptsExceeded),
		errors.Is(err, services.ErrResetCooldown):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSMSNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		utils.SafeError("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// parseID reads the :id path parameter, answering 400 when it is not a
// positive integer.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
