package storage

import (
	"campusnet/backend/internal/config"
	"campusnet/backend/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Storage is the durable side of the service: the social graph, messages,
// notifications and the read-only user directory.
type Storage interface {
	// Social graph
	CreateConnectionRequest(ctx context.Context, senderID, receiverID string) (*models.ConnectionRequest, error)
	AcceptConnectionRequest(ctx context.Context, requestID, actingUserID string) (*models.ConnectionRequest, error)
	RejectConnectionRequest(ctx context.Context, requestID, actingUserID string) (*models.ConnectionRequest, error)
	AreConnected(ctx context.Context, a, b string) (bool, error)
	ListPendingRequests(ctx context.Context, userID string) ([]models.ConnectionRequest, error)
	ListOutgoingRequests(ctx context.Context, userID string) ([]models.ConnectionRequest, error)
	ListConnectionIDs(ctx context.Context, userID string) ([]string, error)
	ImportConnections(ctx context.Context, userID string, peerIDs []string) (int, error)
	ReconcileConnections(ctx context.Context) (int, error)

	// Messages
	SaveMessage(ctx context.Context, msg *models.Message) error
	GetConversation(ctx context.Context, a, b string) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, readerID, otherID string) (int64, error)

	// Notifications
	SaveNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, recipientID string) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, recipientID string) (int64, error)
	MarkNotificationRead(ctx context.Context, id uint, requesterID string) (*models.Notification, error)
	ClearNotifications(ctx context.Context, recipientID string) (int64, error)

	// User directory
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUsers(ctx context.Context, userIDs []string) (map[string]models.User, error)

	PublishEvent(ctx context.Context, channel string, event any) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor. rdb may be nil, which disables event publishing.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// OpenDB opens the configured database with gorm error translation enabled,
// so unique violations surface as gorm.ErrDuplicatedKey.
func OpenDB(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		dialector = postgres.Open(cfg.DatabaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DatabaseDriver, err)
	}
	if cfg.DatabaseDriver == config.DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenRedis connects to Redis when an address is configured; it returns nil otherwise.
func OpenRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ConnectionRequest{},
		&models.Connection{},
		&models.Message{},
		&models.Notification{},
	)
}

// Ping checks that the database answers.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return dbError("ping", err)
	}
	return dbError("ping", sqlDB.PingContext(ctx))
}

// PublishEvent publishes a domain event to a Redis Pub/Sub channel for other
// consumers (mailers, analytics). It is a no-op when Redis is not configured.
func (s *Service) PublishEvent(ctx context.Context, channel string, event any) error {
	if s.Redis == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := s.Redis.Publish(ctx, channel, string(payload)).Err(); err != nil {
		log.Printf("ERROR: Failed to publish event to %s: %v", channel, err)
		return err
	}
	return nil
}
