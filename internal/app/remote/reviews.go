package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/docstore"
)

// GetReview returns nil, nil when the review does not exist.
func (s *DocumentSource) GetReview(ctx context.Context, id string) (*model.Review, error) {
	if err := requireID("review id", id); err != nil {
		return nil, err
	}
	var review model.Review
	found, err := s.get(ctx, ReviewsCollection, id, &review)
	if err != nil || !found {
		return nil, err
	}
	review.ID = id
	return &review, nil
}

func validateReview(review *model.Review) error {
	if review == nil {
		return fmt.Errorf("%w: review is required", model.ErrInvalidArgument)
	}
	if err := requireID("userId", review.UserID); err != nil {
		return err
	}
	if review.Rating < model.MinRating || review.Rating > model.MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", model.ErrInvalidArgument, model.MinRating, model.MaxRating)
	}
	return nil
}

// UpsertReview writes the full review. A blank id is replaced by a generated
// one; an existing document keeps its createdAt. The rating aggregates of the
// review's restaurant are recomputed afterwards, and those of the previous
// restaurant too when the review moved.
func (s *DocumentSource) UpsertReview(ctx context.Context, review *model.Review) (*model.Review, error) {
	if err := validateReview(review); err != nil {
		return nil, err
	}

	stamped := *review
	if strings.TrimSpace(stamped.ID) == "" {
		stamped.ID = s.store.NewID(ReviewsCollection)
	}
	if stamped.LikedBy == nil {
		stamped.LikedBy = []string{}
	}

	existing, err := s.GetReview(ctx, stamped.ID)
	if err != nil {
		return nil, err
	}

	now := s.nowMillis()
	stamped.CreatedAt = now
	if existing != nil {
		stamped.CreatedAt = existing.CreatedAt
	}
	stamped.LastUpdated = now

	if err := s.store.Set(ctx, ReviewsCollection, stamped.ID, stamped); err != nil {
		return nil, fmt.Errorf("failed to write review %s: %w", stamped.ID, err)
	}

	if stamped.RestaurantID != "" {
		s.recomputeAggregates(ctx, stamped.RestaurantID, hintFromReview(&stamped))
	}
	if existing != nil && existing.RestaurantID != "" && existing.RestaurantID != stamped.RestaurantID {
		s.recomputeAggregates(ctx, existing.RestaurantID, hintFromReview(existing))
	}
	return &stamped, nil
}

// ToggleLike adds userID to the review's likedBy set, or removes it when
// present, and returns the review as stored afterwards.
//
// The membership test and the write are separate round trips; concurrent
// toggles by the same user resolve last-writer-wins.
func (s *DocumentSource) ToggleLike(ctx context.Context, reviewID, userID string) (*model.Review, error) {
	if err := requireID("review id", reviewID); err != nil {
		return nil, err
	}
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}

	review, err := s.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, fmt.Errorf("%w: review %s", model.ErrNotFound, reviewID)
	}

	op := docstore.ArrayUnion(userID)
	if review.IsLikedBy(userID) {
		op = docstore.ArrayRemove(userID)
	}
	if err := s.store.Update(ctx, ReviewsCollection, reviewID, []docstore.Update{
		{Field: fieldLikedBy, Value: op},
		{Field: fieldLastUpdated, Value: s.nowMillis()},
	}); err != nil {
		return nil, fmt.Errorf("failed to toggle like on review %s: %w", reviewID, err)
	}

	updated, err := s.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: review %s deleted during like toggle", model.ErrNotFound, reviewID)
	}
	return updated, nil
}

// DeleteReview removes the review and recomputes its restaurant's aggregates.
// It returns the review as it was before deletion, or nil when it did not exist.
func (s *DocumentSource) DeleteReview(ctx context.Context, id string) (*model.Review, error) {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, ReviewsCollection, id); err != nil {
		return nil, fmt.Errorf("failed to delete review %s: %w", id, err)
	}
	if review != nil && review.RestaurantID != "" {
		s.recomputeAggregates(ctx, review.RestaurantID, hintFromReview(review))
	}
	return review, nil
}

// GetFeedPage returns up to limit reviews by createdAt descending, strictly
// older than cursor when cursor is non-nil.
func (s *DocumentSource) GetFeedPage(ctx context.Context, limit int, cursor *int64) ([]model.Review, error) {
	return s.reviewPage(ctx, nil, limit, cursor)
}

func (s *DocumentSource) GetReviewsByUserPage(ctx context.Context, userID string, limit int, cursor *int64) ([]model.Review, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	return s.reviewPage(ctx, []docstore.Filter{{Field: fieldUserID, Value: userID}}, limit, cursor)
}

func (s *DocumentSource) GetReviewsByRestaurantPage(ctx context.Context, restaurantID string, limit int, cursor *int64) ([]model.Review, error) {
	if err := requireID("restaurantId", restaurantID); err != nil {
		return nil, err
	}
	return s.reviewPage(ctx, []docstore.Filter{{Field: fieldRestaurantID, Value: restaurantID}}, limit, cursor)
}

func (s *DocumentSource) reviewPage(ctx context.Context, filters []docstore.Filter, limit int, cursor *int64) ([]model.Review, error) {
	if err := requireLimit(limit); err != nil {
		return nil, err
	}
	docs, err := s.store.Query(ctx, ReviewsCollection, createdQuery(filters, limit, cursor))
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	return decodeReviews(docs)
}

func decodeReviews(docs []docstore.Document) ([]model.Review, error) {
	reviews := make([]model.Review, 0, len(docs))
	for _, doc := range docs {
		var r model.Review
		if err := doc.DataTo(&r); err != nil {
			return nil, fmt.Errorf("failed to decode review %s: %w", doc.ID(), err)
		}
		r.ID = doc.ID()
		reviews = append(reviews, r)
	}
	return reviews, nil
}
