// Package app assembles the TasteClub backend from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/IdoNaor1/TasteClub/config"
	"github.com/IdoNaor1/TasteClub/internal/app/cache"
	"github.com/IdoNaor1/TasteClub/internal/app/controller"
	"github.com/IdoNaor1/TasteClub/internal/app/remote"
	"github.com/IdoNaor1/TasteClub/internal/app/repository"
	"github.com/IdoNaor1/TasteClub/internal/db"
	"github.com/IdoNaor1/TasteClub/internal/docstore"
	"github.com/IdoNaor1/TasteClub/internal/middleware"
	"github.com/IdoNaor1/TasteClub/internal/places"
	"github.com/IdoNaor1/TasteClub/internal/router"
	"github.com/IdoNaor1/TasteClub/internal/scheduler"
	"github.com/IdoNaor1/TasteClub/internal/storage"
	ws "github.com/IdoNaor1/TasteClub/internal/websocket"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
	"github.com/IdoNaor1/TasteClub/pkg/redis"
	"github.com/IdoNaor1/TasteClub/pkg/util"
)

// Container owns every long-lived dependency of the service. It is built
// once at startup and handed to whoever needs a piece of it.
type Container struct {
	Config *config.Config

	Store  docstore.Store
	Source *remote.DocumentSource
	Images *storage.ImageStorage
	DB     *gorm.DB
	Hub    *cache.ChangeHub
	Tokens *redis.TokenStore

	Auth        repository.AuthRepository
	Reviews     repository.ReviewRepository
	Restaurants repository.RestaurantRepository

	Streams   *ws.Hub
	Scheduler *scheduler.FeedSyncScheduler
	Engine    *gin.Engine
}

// NewContainer connects the remote store, blob store, cache and Redis and
// wires the repositories and HTTP layer on top of them. On error every
// resource opened so far is released.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	if err := c.build(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) build(ctx context.Context) error {
	cfg := c.Config

	var err error
	if c.Store, err = openStore(ctx, &cfg.Remote); err != nil {
		return err
	}
	c.Source = remote.NewDocumentSource(c.Store)

	blobs, err := openBlobs(ctx, &cfg.Storage)
	if err != nil {
		return err
	}
	c.Images = storage.NewImageStorage(blobs)

	if c.DB, err = db.Open(&cfg.Cache); err != nil {
		return err
	}
	if err = db.Migrate(c.DB, cfg.Cache.SchemaVersion); err != nil {
		return err
	}
	c.Hub = cache.NewChangeHub()
	users := cache.NewUserDAO(c.DB, c.Hub)
	reviews := cache.NewReviewDAO(c.DB, c.Hub)
	restaurants := cache.NewRestaurantDAO(c.DB, c.Hub)

	var tokens repository.TokenStore
	if cfg.Redis.Addr() != "" {
		if c.Tokens, err = redis.Connect(ctx, &cfg.Redis); err != nil {
			return err
		}
		tokens = c.Tokens
	} else {
		logger.Warn("Redis not configured; token revocation and password reset are disabled")
	}

	c.Auth = repository.NewAuthRepository(c.Source, c.Images, users, tokens, util.NewMailer(cfg.Mail), cfg.JWT, cfg.Mail.ResetTokenTTL)
	c.Restaurants = repository.NewRestaurantRepository(c.Source, restaurants, places.NewClient(cfg.Places))
	c.Reviews = repository.NewReviewRepository(c.Source, c.Images, reviews, users, restaurants)

	c.Streams = ws.NewHub()
	c.Scheduler = scheduler.NewFeedSyncScheduler(c.Reviews, cfg.Scheduler.FeedSyncSpec, cfg.Scheduler.FeedSyncPageSize)

	c.Engine = router.NewRouter(
		controller.NewAuthController(c.Auth),
		controller.NewUserController(c.Auth, c.Reviews),
		controller.NewReviewController(c.Reviews),
		controller.NewRestaurantController(c.Restaurants, c.Reviews),
		controller.NewStreamController(c.Auth, c.Reviews, c.Restaurants, c.Streams, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(cfg.JWT.Secret, c.Auth),
		cfg,
	).Setup()

	return nil
}

// Close releases the connections opened by NewContainer. It is safe to call
// on a partially built container.
func (c *Container) Close() {
	if c.Tokens != nil {
		if err := c.Tokens.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}
	if c.DB != nil {
		if err := db.Close(c.DB); err != nil {
			logger.Error("Failed to close cache database", err)
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			logger.Error("Failed to close document store", err)
		}
	}
}

func openStore(ctx context.Context, cfg *config.RemoteConfig) (docstore.Store, error) {
	switch cfg.Driver {
	case "firestore":
		store, err := docstore.NewFirestoreStore(ctx, cfg.ProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		logger.Warn("Using in-memory document store; data is lost on restart")
		return docstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown remote driver %q", cfg.Driver)
	}
}

func openBlobs(ctx context.Context, cfg *config.StorageConfig) (storage.BlobStore, error) {
	switch cfg.Driver {
	case "s3":
		return storage.NewS3Storage(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL), nil
	case "memory":
		return storage.NewMemoryStorage(cfg.S3.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
