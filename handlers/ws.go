package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/utils"
)

const wsUserKey = "user_id"

// WSHandler pushes "ledger changed" events to the sockets of the user whose
// data changed.
type WSHandler struct {
	M      *melody.Melody
	tokens *utils.TokenManager
}

func NewWSHandler(tokens *utils.TokenManager) *WSHandler {
	m := melody.New()
	m.Config.MaxMessageSize = 512
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		utils.LogWebSocket("connected", sessionUserID(s))
	})
	m.HandleDisconnect(func(s *melody.Session) {
		utils.LogWebSocket("disconnected", sessionUserID(s))
	})
	m.HandleError(func(s *melody.Session, err error) {
		utils.SafeWarn("WebSocket error for user %d: %v", sessionUserID(s), err)
	})

	return &WSHandler{M: m, tokens: tokens}
}

func sessionUserID(s *melody.Session) int64 {
	v, ok := s.Get(wsUserKey)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}

// HandleWS upgrades GET /ws?token=<jwt>. Browsers cannot set headers on a
// websocket handshake, hence the query parameter.
func (h *WSHandler) HandleWS(c *gin.Context) {
	claims, err := h.tokens.ValidateToken(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, map[string]any{wsUserKey: claims.UserID}); err != nil {
		utils.SafeWarn("Failed to upgrade websocket: %v", err)
	}
}

// LedgerChanged broadcasts the change to that user's sockets only.
func (h *WSHandler) LedgerChanged(_ context.Context, userID int64, entity string) {
	msg, err := json.Marshal(models.LedgerChangedEvent{Type: "ledger_changed", Entity: entity})
	if err != nil {
		return
	}

	err = h.M.BroadcastFilter(msg, func(s *melody.Session) bool {
		return sessionUserID(s) == userID
	})
	if err != nil && !errors.Is(err, melody.ErrClosed) {
		utils.SafeWarn("Error broadcasting to user %d: %v", userID, err)
	}
}

func (h *WSHandler) Close() error {
	return h.M.Close()
}
