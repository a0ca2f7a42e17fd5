package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/HalooLaloo/quotesnap-sub000/internal/auth"
	"github.com/HalooLaloo/quotesnap-sub000/internal/config"
	"github.com/HalooLaloo/quotesnap-sub000/internal/db"
	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
)

var (
	migrateOnlyFlag     = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	maintenanceOnlyFlag = flag.Bool("maintenance-only", false, "Run the maintenance job once and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	dbConn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
		return
	}

	// Run migrations on startup if enabled
	if cfg.App.Migrations {
		if err := db.Migrate(dbConn); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed")
	}

	// Configure auth verifier to check if the contractor still exists
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		dbConn.Model(&models.Contractor{}).Where("id = ?", uid).Count(&count)
		return count > 0
	})

	appHandler := NewApp(dbConn, cfg)

	// One-shot maintenance run, for hosts without an HTTP scheduler
	if *maintenanceOnlyFlag {
		result := appHandler.maintenance.Run(context.Background(), time.Now())
		if len(result.Errors) > 0 {
			os.Exit(1)
		}
		return
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(appHandler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s (dev=%v)", cfg.Server.Port, cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// withLogging adds request logging middleware.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
