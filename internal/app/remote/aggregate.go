package remote

import (
	"context"
	"fmt"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/docstore"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
)

// restaurantHint carries what a review knows about its restaurant, used when
// the aggregate step has to create a missing restaurant document.
type restaurantHint struct {
	name    string
	address string
}

func hintFromReview(r *model.Review) restaurantHint {
	return restaurantHint{name: r.RestaurantName, address: r.RestaurantAddress}
}

// Aggregate is the rating summary of one restaurant.
type Aggregate struct {
	AverageRating float64
	NumReviews    int
}

// ComputeAggregate reads every review of restaurantID and returns their count
// and mean rating (0 when there are none). Cost is linear in the number of
// reviews of the restaurant.
func (s *DocumentSource) ComputeAggregate(ctx context.Context, restaurantID string) (Aggregate, error) {
	docs, err := s.store.Query(ctx, ReviewsCollection, docstore.Query{
		Where: []docstore.Filter{{Field: fieldRestaurantID, Value: restaurantID}},
	})
	if err != nil {
		return Aggregate{}, fmt.Errorf("failed to query reviews of restaurant %s: %w", restaurantID, err)
	}
	reviews, err := decodeReviews(docs)
	if err != nil {
		return Aggregate{}, err
	}

	agg := Aggregate{NumReviews: len(reviews)}
	if agg.NumReviews == 0 {
		return agg, nil
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	agg.AverageRating = float64(total) / float64(agg.NumReviews)
	return agg, nil
}

// recomputeAggregates refreshes averageRating and numReviews on the restaurant
// document, creating a minimal one when it is missing. Failures are logged and
// swallowed; the triggering write has already succeeded.
//
// Concurrent writers each compute from their own snapshot and the last update
// wins, so a racing pair can leave the aggregate one write behind until the
// next review write for the restaurant.
func (s *DocumentSource) recomputeAggregates(ctx context.Context, restaurantID string, hint restaurantHint) {
	if err := s.applyAggregates(ctx, restaurantID, hint); err != nil {
		logger.Warn("Failed to update restaurant aggregates", logger.Fields{
			"restaurant_id": restaurantID,
			"error":         err.Error(),
		})
	}
}

func (s *DocumentSource) applyAggregates(ctx context.Context, restaurantID string, hint restaurantHint) error {
	agg, err := s.ComputeAggregate(ctx, restaurantID)
	if err != nil {
		return err
	}

	existing, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return err
	}

	now := s.nowMillis()
	if existing == nil {
		minimal := model.Restaurant{
			ID:            restaurantID,
			Name:          hint.name,
			Address:       hint.address,
			AverageRating: agg.AverageRating,
			NumReviews:    agg.NumReviews,
			CreatedAt:     now,
			LastUpdated:   now,
		}
		if err := s.store.Set(ctx, RestaurantsCollection, restaurantID, minimal); err != nil {
			return fmt.Errorf("failed to create restaurant %s: %w", restaurantID, err)
		}
		return nil
	}

	if err := s.store.Update(ctx, RestaurantsCollection, restaurantID, []docstore.Update{
		{Field: "averageRating", Value: agg.AverageRating},
		{Field: "numReviews", Value: agg.NumReviews},
		{Field: fieldLastUpdated, Value: now},
	}); err != nil {
		return fmt.Errorf("failed to update restaurant %s: %w", restaurantID, err)
	}
	return nil
}
