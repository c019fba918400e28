package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/LovationAdmin/financas-api/cache"
	"github.com/LovationAdmin/financas-api/config"
	"github.com/LovationAdmin/financas-api/routes"
	"github.com/LovationAdmin/financas-api/services"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	utils.IsProduction = cfg.IsProduction()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.LogStartup("Financas API", routes.Version, cfg.Port, cfg.DBDriver)

	if err := storage.RunMigrations(cfg.DBDriver, cfg.DSN()); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Println("✅ Migrations applied")

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	log.Println("✅ Database connected successfully")

	gateway := storage.NewGateway(db, cfg.DBDriver)

	if !cfg.SMSConfigured() {
		log.Println("⚠️  Twilio is not configured: password reset by SMS is disabled")
	}
	sender := services.NewSMSSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)

	app, err := routes.NewApp(cfg, gateway, sender)
	if err != nil {
		log.Fatal("Failed to build application:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheManager := cache.NewManager()
	cacheManager.Register(app.SummaryCache)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	app.Router.Limiter.StartCleanup(ctx)
	app.Router.AuthLimiter.StartCleanup(ctx)
	go scheduleSessionCleanup(ctx, app.Sessions)

	log.Printf("🌍 CORS: allowing origins %v", cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(app.Router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Router.WS.Close(); err != nil {
		log.Printf("⚠️ Closing websockets: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Forced shutdown: %v", err)
	}
}

// scheduleSessionCleanup purges expired sessions and reset tickets daily.
func scheduleSessionCleanup(ctx context.Context, sessions *services.SessionService) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	cleanExpiredSessions(ctx, sessions)
	for {
		select {
		case <-ticker.C:
			cleanExpiredSessions(ctx, sessions)
		case <-ctx.Done():
			return
		}
	}
}

func cleanExpiredSessions(ctx context.Context, sessions *services.SessionService) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := sessions.CleanExpired(ctx)
	if err != nil {
		log.Printf("❌ Session cleanup failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("🧹 Cleaned %d expired sessions and reset tickets", n)
	}
}
