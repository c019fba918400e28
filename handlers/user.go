package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/financas-api/middleware"
	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/services"
)

type UserHandler struct {
	Users *services.UserService
}

// ============================================================================
// PROFILE MANAGEMENT
// ============================================================================

func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.Users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.Users.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Users.ChangePassword(c.Request.Context(), middleware.GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.Users.DeleteAccount(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// ============================================================================
// TWO-FACTOR AUTHENTICATION
// ============================================================================

func (h *UserHandler) SetupTOTP(c *gin.Context) {
	setup, err := h.Users.SetupTOTP(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, setup)
}

func (h *UserHandler) VerifyTOTP(c *gin.Context) {
	var req models.VerifyTOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Users.EnableTOTP(c.Request.Context(), middleware.GetUserID(c), req.Code); err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "2FA enabled"})
}

func (h *UserHandler) DisableTOTP(c *gin.Context) {
	var req models.VerifyTOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Users.DisableTOTP(c.Request.Context(), middleware.GetUserID(c), req.Code); err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "2FA disabled"})
}
