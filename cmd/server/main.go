package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/smart-parking/internal/config"
	"github.com/iliyamo/smart-parking/internal/database"
	"github.com/iliyamo/smart-parking/internal/handler"
	"github.com/iliyamo/smart-parking/internal/middleware"
	"github.com/iliyamo/smart-parking/internal/queue"
	"github.com/iliyamo/smart-parking/internal/repository/postgresql"
	"github.com/iliyamo/smart-parking/internal/router"
	"github.com/iliyamo/smart-parking/internal/scheduler"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := postgresql.NewUserRepo(db)
	tokens := postgresql.NewTokenRepo(db)
	slots := postgresql.NewSlotRepo(db)
	history := postgresql.NewHistoryRepo(db)
	reservations := postgresql.NewReservationRepo(db)

	engine := scheduler.NewEngine(slots, reservations, nil)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	slotH := handler.NewSlotHandler(slots)
	parkingH := handler.NewParkingHandler(slots, history)
	reservationH := handler.NewReservationHandler(slots, reservations)
	userH := handler.NewUserHandler(users)
	scheduleH := handler.NewScheduleHandler(engine)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	// Redis is optional: without it the cache and limiter become no-ops.
	// Both run inside the authenticated groups, after JWTAuth, so their
	// keys carry the verified user id and a cache hit is never served to
	// a request that skipped authentication.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, response cache and rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
	router.RegisterParking(e, slotH, parkingH, reservationH, cfg.JWTSecret, limiter, cache)
	router.RegisterAdmin(e, slotH, parkingH, reservationH, userH, scheduleH, cfg.JWTSecret, limiter, cache)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go scheduler.NewScheduler(engine, cfg.ScheduleInterval).Run(ctx)

	go func() {
		if err := queue.StartParkingConsumer(); err != nil {
			log.Printf("parking consumer stopped: %v", err)
		}
	}()

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
