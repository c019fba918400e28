package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/financas-api/middleware"
	"github.com/LovationAdmin/financas-api/services"
)

type SummaryHandler struct {
	Summary *services.SummaryService
}

// GetSummary handles GET /summary?month=&year=&refresh=
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	month, ok := intQuery(c, "month")
	if !ok {
		return
	}
	year, ok := intQuery(c, "year")
	if !ok {
		return
	}
	refresh := c.Query("refresh") == "true" || c.Query("refresh") == "1"

	summary, err := h.Summary.Monthly(c.Request.Context(), middleware.GetUserID(c), month, year, refresh)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// intQuery returns 0 for a missing parameter. A present parameter must be a
// positive number; 0 is reserved for "not given".
func intQuery(c *gin.Context, name string) (int, bool) {
	raw, present := c.GetQuery(name)
	if !present {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive number", "field": name})
		return 0, false
	}
	return v, true
}
