package remote

import (
	"context"
	"fmt"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
)

// GetRestaurant returns nil, nil when the restaurant does not exist.
func (s *DocumentSource) GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	if err := requireID("restaurant id", id); err != nil {
		return nil, err
	}
	var restaurant model.Restaurant
	found, err := s.get(ctx, RestaurantsCollection, id, &restaurant)
	if err != nil || !found {
		return nil, err
	}
	restaurant.ID = id
	return &restaurant, nil
}

// UpsertRestaurant writes the descriptive fields of a restaurant. The stored
// createdAt and rating aggregates are kept; a new restaurant gets its
// aggregates computed from any reviews already pointing at it.
func (s *DocumentSource) UpsertRestaurant(ctx context.Context, restaurant *model.Restaurant) (*model.Restaurant, error) {
	if restaurant == nil {
		return nil, fmt.Errorf("%w: restaurant is required", model.ErrInvalidArgument)
	}
	if err := requireID("restaurant id", restaurant.ID); err != nil {
		return nil, err
	}

	existing, err := s.GetRestaurant(ctx, restaurant.ID)
	if err != nil {
		return nil, err
	}

	now := s.nowMillis()
	stamped := *restaurant
	stamped.LastUpdated = now
	if existing != nil {
		stamped.CreatedAt = existing.CreatedAt
		stamped.AverageRating = existing.AverageRating
		stamped.NumReviews = existing.NumReviews
	} else {
		stamped.CreatedAt = now
		stamped.AverageRating = 0
		stamped.NumReviews = 0
	}

	if err := s.store.Set(ctx, RestaurantsCollection, stamped.ID, stamped); err != nil {
		return nil, fmt.Errorf("failed to write restaurant %s: %w", stamped.ID, err)
	}

	if existing == nil {
		s.recomputeAggregates(ctx, stamped.ID, restaurantHint{})
		if fresh, err := s.GetRestaurant(ctx, stamped.ID); err == nil && fresh != nil {
			return fresh, nil
		}
	}
	return &stamped, nil
}

// DeleteRestaurant removes the restaurant document. Reviews referencing it are kept.
func (s *DocumentSource) DeleteRestaurant(ctx context.Context, id string) error {
	if err := requireID("restaurant id", id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, RestaurantsCollection, id); err != nil {
		return fmt.Errorf("failed to delete restaurant %s: %w", id, err)
	}
	return nil
}

// GetRestaurantsPage lists restaurants by createdAt descending, strictly older than cursor.
func (s *DocumentSource) GetRestaurantsPage(ctx context.Context, limit int, cursor *int64) ([]model.Restaurant, error) {
	if err := requireLimit(limit); err != nil {
		return nil, err
	}
	docs, err := s.store.Query(ctx, RestaurantsCollection, createdQuery(nil, limit, cursor))
	if err != nil {
		return nil, fmt.Errorf("failed to query restaurants: %w", err)
	}
	restaurants := make([]model.Restaurant, 0, len(docs))
	for _, doc := range docs {
		var r model.Restaurant
		if err := doc.DataTo(&r); err != nil {
			return nil, fmt.Errorf("failed to decode restaurant %s: %w", doc.ID(), err)
		}
		r.ID = doc.ID()
		restaurants = append(restaurants, r)
	}
	return restaurants, nil
}
