// Package repository orchestrates the remote document store, the image
// store and the local cache. Reads go cache-first and fill the cache on a
// miss; writes go to the remote store first and are mirrored into the cache
// only after they succeed.
package repository

import (
	"context"
	"time"

	"github.com/IdoNaor1/TasteClub/internal/places"
)

// TokenStore revokes JWTs and holds password reset tokens.
type TokenStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	SaveResetToken(ctx context.Context, token, email string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (string, bool, error)
}

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordReset(toEmail, token string) error
}

// PlaceFinder looks places up in the external place directory.
type PlaceFinder interface {
	GetPlace(ctx context.Context, placeID string) (*places.Place, error)
	SearchRestaurants(ctx context.Context, query string, near *places.LatLng) ([]places.Place, error)
	PhotoURL(ctx context.Context, photoName string) (string, error)
}
