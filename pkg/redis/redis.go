package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IdoNaor1/TasteClub/config"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	blacklistPrefix     = "blacklist:"
	passwordResetPrefix = "password_reset:"
)

// TokenStore keeps revoked token ids and one-time password reset tokens.
type TokenStore struct {
	client *redis.Client
}

// Connect opens and pings a Redis connection.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*TokenStore, error) {
	logger.Info("Initializing Redis connection", logger.Fields{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, logger.Fields{"addr": cfg.Addr()})
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return &TokenStore{client: client}, nil
}

func (s *TokenStore) Close() error {
	logger.Info("Closing Redis connection")
	return s.client.Close()
}

// RevokeToken blacklists a token id until expiry.
func (s *TokenStore) RevokeToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blacklistPrefix+tokenID, "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err)
		return err
	}
	return nil
}

func (s *TokenStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	val, err := s.client.Get(ctx, blacklistPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err)
		return false, err
	}
	return val == "revoked", nil
}

// SaveResetToken stores token -> email for ttl.
func (s *TokenStore) SaveResetToken(ctx context.Context, token, email string, ttl time.Duration) error {
	if err := s.client.Set(ctx, passwordResetPrefix+token, email, ttl).Err(); err != nil {
		logger.Error("Failed to store password reset token", err)
		return err
	}
	return nil
}

// ConsumeResetToken returns the email bound to token and deletes it. found is
// false for unknown or expired tokens.
func (s *TokenStore) ConsumeResetToken(ctx context.Context, token string) (email string, found bool, err error) {
	email, err = s.client.GetDel(ctx, passwordResetPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		logger.Error("Failed to read password reset token", err)
		return "", false, err
	}
	return email, true, nil
}
