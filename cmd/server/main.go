package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/centilliongw/portal-api/internal/config"
	"github.com/centilliongw/portal-api/internal/database"
	"github.com/centilliongw/portal-api/internal/handler"
	"github.com/centilliongw/portal-api/internal/mailer"
	"github.com/centilliongw/portal-api/internal/middleware"
	"github.com/centilliongw/portal-api/internal/queue"
	"github.com/centilliongw/portal-api/internal/repository"
	"github.com/centilliongw/portal-api/internal/router"
	queue_publisher "github.com/centilliongw/portal-api/internal/service"
)

func main() {
	// Load .env if present; real deployments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	accounts := repository.NewAccountRepo(db)
	forms := repository.NewFormRepo(db)
	documents := repository.NewDocumentRepo(db)

	// The verification-mail worker runs inside the API process.  It owns its
	// own broker connection and reconnects on failure.
	m := mailer.New(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom, cfg.FrontendURL)
	go func() {
		if err := queue.StartEmailConsumer(m); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()

	// Redis is optional: a nil client turns the cache and the rate limiter
	// into pass-throughs.
	rdb := config.NewRedisClient()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORS())

	authH := handler.NewAuthHandler(&cfg, accounts, queue_publisher.PublishVerificationEmail)
	formH := handler.NewFormHandler(forms, accounts, documents)
	docH := handler.NewDocumentHandler(documents, accounts)
	adminH := handler.NewAdminHandler(accounts, forms, documents)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
	router.RegisterPortal(e, formH, docH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, formH, accounts, cfg.JWTSecret, cache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
