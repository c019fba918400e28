package handlers

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/financas-api/migration"
	"github.com/LovationAdmin/financas-api/storage"
)

type AdminHandler struct {
	DB     *storage.Gateway
	Secret string
}

func (h *AdminHandler) authorized(c *gin.Context) bool {
	if h.Secret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ADMIN_SECRET not configured"})
		return false
	}
	given := c.GetHeader("X-Admin-Secret")
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.Secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin secret"})
		return false
	}
	return true
}

// MigrateLegacyPasswords handles POST /admin/migrate-legacy-passwords and
// the optional ?user_id= filter.
func (h *AdminHandler) MigrateLegacyPasswords(c *gin.Context) {
	if !h.authorized(c) {
		return
	}

	var userID int64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
			return
		}
		userID = id
	}

	result, err := migration.MigrateLegacyPasswords(c.Request.Context(), h.DB, userID)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, result)
}
