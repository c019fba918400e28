package routes

import (
	"fmt"
	"time"

	"github.com/LovationAdmin/financas-api/cache"
	"github.com/LovationAdmin/financas-api/config"
	"github.com/LovationAdmin/financas-api/handlers"
	"github.com/LovationAdmin/financas-api/middleware"
	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/services"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/utils"
)

// App is the wired service graph behind the router.
type App struct {
	Router       *Router
	Sessions     *services.SessionService
	SummaryCache *cache.LRUCache[models.MonthlySummary]
}

// NewApp wires services and handlers over db. sender delivers reset codes.
func NewApp(cfg *config.Config, db *storage.Gateway, sender services.SMSSender) (*App, error) {
	box, err := utils.NewSecretBox(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("secret box: %w", err)
	}
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)

	summaryCache := cache.NewLRUCache[models.MonthlySummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	summary := services.NewSummaryService(db, summaryCache)
	ws := handlers.NewWSHandler(tokens)

	// Every ledger write invalidates the user's cached summaries and pings
	// their open sockets.
	notifier := services.Notifiers{summary, ws}

	users := services.NewUserService(db, box, notifier)
	sessions := services.NewSessionService(db, tokens, cfg.RefreshTokenTTL)
	resets := services.NewPasswordResetService(db, users, sender, box, services.PasswordResetConfig{
		CodeTTL:        cfg.ResetCodeTTL,
		MaxAttempts:    cfg.ResetMaxAttempts,
		ResendCooldown: cfg.ResetResendCooldown,
	})

	router := &Router{
		Tokens:         tokens,
		AllowedOrigins: cfg.AllowedOrigins,
		Limiter:        middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute),
		AuthLimiter:    middleware.NewRateLimiter(cfg.AuthRateLimitPerMinute, time.Minute),
		Auth:           &handlers.AuthHandler{Users: users, Sessions: sessions, Resets: resets},
		User:           &handlers.UserHandler{Users: users},
		Ledger: &handlers.LedgerHandler{
			Income:        services.NewIncomeService(db, notifier),
			CreditCards:   services.NewCreditCardService(db, notifier),
			Bills:         services.NewBillService(db, notifier),
			FixedAccounts: services.NewFixedAccountService(db, notifier),
		},
		Summary: &handlers.SummaryHandler{Summary: summary},
		WS:      ws,
		Admin:   &handlers.AdminHandler{DB: db, Secret: cfg.AdminSecret},
	}

	return &App{Router: router, Sessions: sessions, SummaryCache: summaryCache}, nil
}
