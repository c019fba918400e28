package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/services"
)

type AuthHandler struct {
	Users    *services.UserService
	Sessions *services.SessionService
	Resets   *services.PasswordResetService
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.Users.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}

	resp, err := h.Sessions.Issue(c.Request.Context(), user)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password, req.TOTPCode)
	if err != nil {
		respondError(c, err, "Invalid credentials")
		return
	}

	resp, err := h.Sessions.Issue(c.Request.Context(), user)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.Sessions.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err, "Session not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Sessions.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err, "Session not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ForgotPassword sends a reset code by SMS to the phone of an existing user.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.Resets.Request(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err, "No user registered with this phone")
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Resets.Reset(c.Request.Context(), req); err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
