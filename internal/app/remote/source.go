// Package remote is the accessor for the remote document store: users,
// reviews, restaurants and login credentials. It stamps timestamps, assigns
// review ids, validates inputs before any network call and keeps restaurant
// rating aggregates in step with review writes.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/docstore"
)

const (
	UsersCollection       = "users"
	ReviewsCollection     = "reviews"
	RestaurantsCollection = "restaurants"
	CredentialsCollection = "credentials"

	fieldCreatedAt    = "createdAt"
	fieldLastUpdated  = "lastUpdated"
	fieldUserID       = "userId"
	fieldRestaurantID = "restaurantId"
	fieldLikedBy      = "likedBy"
)

// DocumentSource reads and writes domain documents. It holds no state beyond
// its store and clock and is safe for concurrent use.
type DocumentSource struct {
	store docstore.Store
	now   func() time.Time
}

type Option func(*DocumentSource)

// WithClock overrides the time source used for createdAt and lastUpdated.
func WithClock(now func() time.Time) Option {
	return func(s *DocumentSource) {
		s.now = now
	}
}

func NewDocumentSource(store docstore.Store, opts ...Option) *DocumentSource {
	s := &DocumentSource{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DocumentSource) nowMillis() int64 {
	return s.now().UnixMilli()
}

// get loads collection/id into out. found is false when the document does not exist.
func (s *DocumentSource) get(ctx context.Context, collection, id string, out interface{}) (bool, error) {
	doc, err := s.store.Get(ctx, collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s/%s: %w", collection, id, err)
	}
	if err := doc.DataTo(out); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func requireID(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s must not be blank", model.ErrInvalidArgument, name)
	}
	return nil
}

func requireLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", model.ErrInvalidArgument)
	}
	return nil
}

func createdQuery(filters []docstore.Filter, limit int, cursor *int64) docstore.Query {
	q := docstore.Query{
		Where:      filters,
		OrderBy:    fieldCreatedAt,
		Descending: true,
		Limit:      limit,
	}
	if cursor != nil {
		q.StartAfter = *cursor
	}
	return q
}
