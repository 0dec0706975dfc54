package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/config"
	"github.com/yeremiapane/cafe-pos/repository"
	"github.com/yeremiapane/cafe-pos/router"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

func main() {
	cfg := config.Load()
	utils.InitLogger(cfg.LogLevel)
	utils.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	store := repository.New(db)
	if err := store.Migrate(); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	users := services.NewUserService(store)
	if err := users.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPass); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed admin user: %v", err)
	}

	opts := services.Options{
		TaxRate:     cfg.TaxRate,
		StrictStock: cfg.StockPolicy == config.StockPolicyStrict,
	}
	svc := router.Services{
		Orders:  services.NewOrderService(store, opts),
		Tables:  services.NewTableService(store, opts),
		Unpaid:  services.NewUnpaidService(store),
		Reports: services.NewReportService(store),
		Catalog: services.NewCatalogService(store),
		Users:   users,
	}

	monitor := services.NewChangeMonitor(store, services.HubBroadcaster())
	monitor.Interval = 500 * time.Millisecond
	monitor.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.SetupRouter(svc, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.InfoLogger.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
	monitor.Stop()
}
