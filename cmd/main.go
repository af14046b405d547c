package main

import (
	"campusnet/backend/internal/api/handler"
	"campusnet/backend/internal/chathub"
	"campusnet/backend/internal/config"
	"campusnet/backend/internal/connection"
	"campusnet/backend/internal/localization"
	"campusnet/backend/internal/messaging"
	"campusnet/backend/internal/notification"
	"campusnet/backend/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

func main() {
	log.Println("Starting campusnet backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 1. Dependencies
	db, err := storage.OpenDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb, err := storage.OpenRedis(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}
	if rdb == nil {
		log.Println("INFO: REDIS_ADDR not set, domain events will not be published")
	}
	log.Println("Database and Redis connections established, migrations complete.")

	s := storage.NewStorageService(db, rdb)

	localizer, err := localization.NewLocalizer()
	if err != nil {
		log.Fatalf("Failed to load notification templates: %v", err)
	}
	if !localizer.HasLanguage(cfg.NotificationLanguage) {
		log.Printf("WARNING: No templates for %q, falling back to %q", cfg.NotificationLanguage, localization.DefaultLanguage)
	}

	// 2. Hub, services and background workers
	ctx, cancel := context.WithCancel(context.Background())

	hub := chathub.NewManagerService()
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	reconciler := connection.NewReconciler(s, cfg.ReconcileInterval)
	go reconciler.Run(ctx)

	h := handler.NewHandler(ctx, cfg, hub,
		messaging.NewService(s, hub),
		connection.NewService(s, localizer, cfg.NotificationLanguage),
		notification.NewService(s),
		s,
	)

	// 3. HTTP
	r := gin.Default()
	h.RegisterRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Unread-Count"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        c.Handler(r),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("INFO: Listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 4. Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				// Stores are closed only once in-flight requests are done.
				err := server.Shutdown(ctx)
				if sqlDB, dbErr := db.DB(); dbErr == nil {
					err = errors.Join(err, sqlDB.Close())
				}
				if rdb != nil {
					err = errors.Join(err, rdb.Close())
				}
				return err
			},
			"hub": func(ctx context.Context) error {
				cancel()
				select {
				case <-hubDone:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}
