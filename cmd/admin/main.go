package main

import (
	"campusnet/backend/internal/api/handler"
	"campusnet/backend/internal/config"
	"campusnet/backend/internal/connection"
	"campusnet/backend/internal/storage"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

const usage = `Usage: admin <command> [args]

Commands:
  reconcile                              repair connections missing for accepted requests
  clear-notifications <user_id>          delete every notification of a user
  import-connections <user_id> <peer>... materialize connections from the directory
  issue-token <user_id> [ttl_hours]      sign an access token for local testing`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	command := os.Args[1]
	if command == "issue-token" {
		issueToken(cfg, os.Args[2:])
		return
	}

	db, err := storage.OpenDB(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI
	ctx := context.Background()

	switch command {
	case "reconcile":
		repaired, err := connection.NewReconciler(storageSvc, cfg.ReconcileInterval).RunOnce(ctx)
		if err != nil {
			log.Fatalf("Error reconciling connections: %v", err)
		}
		fmt.Printf("Repaired %d connections.\n", repaired)
	case "clear-notifications":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin clear-notifications <user_id>")
			os.Exit(1)
		}
		deleted, err := storageSvc.ClearNotifications(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("Error clearing notifications: %v", err)
		}
		fmt.Printf("Deleted %d notifications of %s.\n", deleted, os.Args[2])
	case "import-connections":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin import-connections <user_id> <peer_id>...")
			os.Exit(1)
		}
		created, err := storageSvc.ImportConnections(ctx, os.Args[2], os.Args[3:])
		if err != nil {
			log.Fatalf("Error importing connections: %v", err)
		}
		fmt.Printf("Imported %d new connections for %s.\n", created, os.Args[2])
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func issueToken(cfg config.Config, args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Println("Usage: admin issue-token <user_id> [ttl_hours]")
		os.Exit(1)
	}
	ttl := 24 * time.Hour
	if len(args) == 2 {
		hours, err := strconv.Atoi(args[1])
		if err != nil || hours <= 0 {
			fmt.Println("Invalid ttl. Please provide a positive number of hours.")
			os.Exit(1)
		}
		ttl = time.Duration(hours) * time.Hour
	}

	token, err := handler.GenerateToken([]byte(cfg.JWTSecret), args[0], ttl)
	if err != nil {
		log.Fatalf("Error signing token: %v", err)
	}
	fmt.Println(token)
}
