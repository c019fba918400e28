package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/financas-api/handlers"
	"github.com/LovationAdmin/financas-api/middleware"
	"github.com/LovationAdmin/financas-api/utils"
)

const Version = "1.0.0"

// Router holds everything the HTTP surface needs.
type Router struct {
	Tokens         *utils.TokenManager
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter
	AuthLimiter    *middleware.RateLimiter

	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Ledger  *handlers.LedgerHandler
	Summary *handlers.SummaryHandler
	WS      *handlers.WSHandler
	Admin   *handlers.AdminHandler
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(r *Router) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	if len(r.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     r.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if r.Limiter != nil {
		router.Use(r.Limiter.Middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": Version,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	v1 := router.Group("/api/v1")
	{
		SetupAuthRoutes(v1, r.Auth, r.AuthLimiter)
		SetupAdminRoutes(v1, r.Admin)
		v1.GET("/ws", r.WS.HandleWS)

		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware(r.Tokens))
		{
			SetupUserRoutes(protected, r.User)
			SetupLedgerRoutes(protected, r.Ledger)
			SetupSummaryRoutes(protected, r.Summary)
		}
	}

	return router
}

// SetupAuthRoutes registers the public authentication routes. limiter, when
// set, applies a stricter budget to them.
func SetupAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler, limiter *middleware.RateLimiter) {
	auth := rg.Group("/auth")
	if limiter != nil {
		auth.Use(limiter.Middleware())
	}

	auth.POST("/signup", h.Signup)
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/logout", h.Logout)
	auth.POST("/password/forgot", h.ForgotPassword)
	auth.POST("/password/reset", h.ResetPassword)
}

func SetupUserRoutes(rg *gin.RouterGroup, h *handlers.UserHandler) {
	rg.GET("/user/profile", h.GetProfile)
	rg.PUT("/user/profile", h.UpdateProfile)
	rg.POST("/user/password", h.ChangePassword)
	rg.POST("/user/2fa/setup", h.SetupTOTP)
	rg.POST("/user/2fa/verify", h.VerifyTOTP)
	rg.POST("/user/2fa/disable", h.DisableTOTP)
	rg.DELETE("/user/account", h.DeleteAccount)
}

func SetupLedgerRoutes(rg *gin.RouterGroup, h *handlers.LedgerHandler) {
	rg.GET("/income", h.GetIncome)
	rg.PUT("/income", h.SetIncome)

	rg.GET("/credit-cards", h.ListCreditCards)
	rg.POST("/credit-cards", h.CreateCreditCard)
	rg.PUT("/credit-cards/:id", h.UpdateCreditCard)
	rg.DELETE("/credit-cards/:id", h.DeleteCreditCard)

	rg.GET("/bills", h.ListBills)
	rg.POST("/bills", h.CreateBill)
	rg.PUT("/bills/:id", h.UpdateBill)
	rg.DELETE("/bills/:id", h.DeleteBill)

	rg.GET("/fixed-accounts", h.ListFixedAccounts)
	rg.POST("/fixed-accounts", h.CreateFixedAccount)
	rg.PUT("/fixed-accounts/:id", h.UpdateFixedAccount)
	rg.DELETE("/fixed-accounts/:id", h.DeleteFixedAccount)
}

func SetupSummaryRoutes(rg *gin.RouterGroup, h *handlers.SummaryHandler) {
	rg.GET("/summary", h.GetSummary)
}

func SetupAdminRoutes(rg *gin.RouterGroup, h *handlers.AdminHandler) {
	rg.POST("/admin/migrate-legacy-passwords", h.MigrateLegacyPasswords)
}
