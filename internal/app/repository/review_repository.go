package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/IdoNaor1/TasteClub/internal/app/cache"
	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/app/remote"
	"github.com/IdoNaor1/TasteClub/internal/storage"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
)

// ReviewInput is the author-editable part of a review.
type ReviewInput struct {
	RestaurantID string `json:"restaurantId" form:"restaurantId"`
	Rating       int    `json:"rating" form:"rating"`
	Text         string `json:"text" form:"text"`
}

type ReviewRepository interface {
	RefreshFeedPage(ctx context.Context, limit int, cursor *int64) (model.ReviewPage, error)
	RefreshUserReviewsPage(ctx context.Context, userID string, limit int, cursor *int64) (model.ReviewPage, error)
	RefreshRestaurantReviewsPage(ctx context.Context, restaurantID string, limit int, cursor *int64) (model.ReviewPage, error)
	ListCached(ctx context.Context, q cache.ReviewQuery) ([]model.Review, error)
	ObserveReviews(ctx context.Context, q cache.ReviewQuery) *cache.Watch[[]model.Review]

	GetReview(ctx context.Context, id string) (*model.Review, error)
	UpsertReview(ctx context.Context, review *model.Review, image []byte, removeImage bool) (*model.Review, error)
	CreateReview(ctx context.Context, authorID string, input ReviewInput, image []byte) (*model.Review, error)
	EditReview(ctx context.Context, id, requesterID string, input ReviewInput, image []byte, removeImage bool) (*model.Review, error)
	ToggleLike(ctx context.Context, id, userID string) (*model.Review, error)
	DeleteReview(ctx context.Context, id, requesterID string) error
}

type reviewRepository struct {
	source      *remote.DocumentSource
	images      *storage.ImageStorage
	reviews     *cache.ReviewDAO
	users       *cache.UserDAO
	restaurants *cache.RestaurantDAO
}

func NewReviewRepository(
	source *remote.DocumentSource,
	images *storage.ImageStorage,
	reviews *cache.ReviewDAO,
	users *cache.UserDAO,
	restaurants *cache.RestaurantDAO,
) ReviewRepository {
	return &reviewRepository{
		source:      source,
		images:      images,
		reviews:     reviews,
		users:       users,
		restaurants: restaurants,
	}
}

func (r *reviewRepository) RefreshFeedPage(ctx context.Context, limit int, cursor *int64) (model.ReviewPage, error) {
	page, err := r.source.GetFeedPage(ctx, limit, cursor)
	return r.cachePage(ctx, page, limit, err)
}

func (r *reviewRepository) RefreshUserReviewsPage(ctx context.Context, userID string, limit int, cursor *int64) (model.ReviewPage, error) {
	page, err := r.source.GetReviewsByUserPage(ctx, userID, limit, cursor)
	return r.cachePage(ctx, page, limit, err)
}

func (r *reviewRepository) RefreshRestaurantReviewsPage(ctx context.Context, restaurantID string, limit int, cursor *int64) (model.ReviewPage, error) {
	page, err := r.source.GetReviewsByRestaurantPage(ctx, restaurantID, limit, cursor)
	return r.cachePage(ctx, page, limit, err)
}

func (r *reviewRepository) cachePage(ctx context.Context, page []model.Review, limit int, err error) (model.ReviewPage, error) {
	if err != nil {
		return model.ReviewPage{}, err
	}
	if err := r.reviews.UpsertAll(ctx, page); err != nil {
		logger.Warn("Failed to cache review page", logger.Fields{"count": len(page), "error": err.Error()})
	}
	return model.NewReviewPage(page, limit), nil
}

func (r *reviewRepository) ListCached(ctx context.Context, q cache.ReviewQuery) ([]model.Review, error) {
	return r.reviews.List(ctx, q)
}

func (r *reviewRepository) ObserveReviews(ctx context.Context, q cache.ReviewQuery) *cache.Watch[[]model.Review] {
	return r.reviews.ObserveList(ctx, q)
}

// GetReview reads the cached review, falling back to the remote store.
func (r *reviewRepository) GetReview(ctx context.Context, id string) (*model.Review, error) {
	if cached, err := r.reviews.GetByID(ctx, id); err == nil && cached != nil {
		return cached, nil
	}
	review, err := r.source.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, fmt.Errorf("%w: review %s", model.ErrNotFound, id)
	}
	r.cacheReview(ctx, review)
	return review, nil
}

// UpsertReview saves review, then optionally stores or removes its image:
// the document is written first so the image key can use its id, the image
// is uploaded, and the document is written again with the image URL. The
// final review is cached and the restaurant's cached aggregates refreshed.
func (r *reviewRepository) UpsertReview(ctx context.Context, review *model.Review, image []byte, removeImage bool) (*model.Review, error) {
	saved, err := r.source.UpsertReview(ctx, review)
	if err != nil {
		return nil, err
	}

	switch {
	case image != nil:
		url, err := r.images.UploadReviewImage(ctx, saved.ID, image)
		if err != nil {
			logger.Error("Failed to upload review image", err, logger.Fields{"review_id": saved.ID})
			return nil, err
		}
		saved.ImageURL = url
		if saved, err = r.source.UpsertReview(ctx, saved); err != nil {
			return nil, err
		}
	case removeImage:
		if err := r.images.DeleteReviewImage(ctx, saved.ID); err != nil {
			logger.Warn("Failed to delete review image", logger.Fields{"review_id": saved.ID, "error": err.Error()})
		}
		saved.ImageURL = ""
		if saved, err = r.source.UpsertReview(ctx, saved); err != nil {
			return nil, err
		}
	}

	r.cacheReview(ctx, saved)
	r.refreshRestaurantCache(ctx, saved.RestaurantID)
	return saved, nil
}

// CreateReview writes a new review by authorID, snapshotting the author's
// profile and the restaurant's name and address into it.
func (r *reviewRepository) CreateReview(ctx context.Context, authorID string, input ReviewInput, image []byte) (*model.Review, error) {
	if strings.TrimSpace(input.RestaurantID) == "" {
		return nil, fmt.Errorf("%w: restaurantId must not be blank", model.ErrInvalidArgument)
	}
	review := &model.Review{
		UserID:       authorID,
		RestaurantID: input.RestaurantID,
		Rating:       input.Rating,
		Text:         strings.TrimSpace(input.Text),
		LikedBy:      []string{},
	}
	r.snapshotAuthor(ctx, review)
	r.snapshotRestaurant(ctx, review)

	saved, err := r.UpsertReview(ctx, review, image, false)
	if err != nil {
		return nil, err
	}
	logger.Info("Review created", logger.Fields{
		"review_id":     saved.ID,
		"user_id":       authorID,
		"restaurant_id": saved.RestaurantID,
	})
	return saved, nil
}

// EditReview applies input to the author's own review. Likes come from the
// stored document, not the caller.
func (r *reviewRepository) EditReview(ctx context.Context, id, requesterID string, input ReviewInput, image []byte, removeImage bool) (*model.Review, error) {
	existing, err := r.source.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: review %s", model.ErrNotFound, id)
	}
	if existing.UserID != requesterID {
		return nil, fmt.Errorf("%w: review %s belongs to another user", model.ErrForbidden, id)
	}

	updated := *existing
	updated.Rating = input.Rating
	updated.Text = strings.TrimSpace(input.Text)
	if input.RestaurantID != "" && input.RestaurantID != existing.RestaurantID {
		updated.RestaurantID = input.RestaurantID
		r.snapshotRestaurant(ctx, &updated)
	}

	saved, err := r.UpsertReview(ctx, &updated, image, removeImage)
	if err != nil {
		return nil, err
	}
	if existing.RestaurantID != "" && existing.RestaurantID != saved.RestaurantID {
		r.refreshRestaurantCache(ctx, existing.RestaurantID)
	}
	return saved, nil
}

func (r *reviewRepository) ToggleLike(ctx context.Context, id, userID string) (*model.Review, error) {
	review, err := r.source.ToggleLike(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	r.cacheReview(ctx, review)
	return review, nil
}

// DeleteReview removes a review everywhere. A review that no longer exists
// remotely is just dropped from the cache. A non-empty requesterID must be
// the author.
func (r *reviewRepository) DeleteReview(ctx context.Context, id, requesterID string) error {
	before, err := r.source.GetReview(ctx, id)
	if err != nil {
		return err
	}
	if before != nil && requesterID != "" && before.UserID != requesterID {
		return fmt.Errorf("%w: review %s belongs to another user", model.ErrForbidden, id)
	}

	if before != nil {
		deleted, err := r.source.DeleteReview(ctx, id)
		if err != nil {
			return err
		}
		if deleted != nil {
			before = deleted
		}

		if before.ImageURL != "" {
			if err := r.images.DeleteReviewImage(ctx, id); err != nil {
				logger.Warn("Failed to delete review image", logger.Fields{"review_id": id, "error": err.Error()})
			}
		}
	} else {
		logger.Info("Review already gone from remote store", logger.Fields{"review_id": id})
	}

	if err := r.reviews.DeleteByID(ctx, id); err != nil {
		logger.Warn("Failed to delete review from cache", logger.Fields{"review_id": id, "error": err.Error()})
	}
	if before != nil {
		r.refreshRestaurantCache(ctx, before.RestaurantID)
	}
	logger.Info("Review deleted", logger.Fields{"review_id": id})
	return nil
}

func (r *reviewRepository) snapshotAuthor(ctx context.Context, review *model.Review) {
	author, err := r.users.GetByID(ctx, review.UserID)
	if err != nil || author == nil {
		author, err = r.source.GetUser(ctx, review.UserID)
	}
	if err != nil || author == nil {
		logger.Warn("Author profile unavailable for review snapshot", logger.Fields{"user_id": review.UserID})
		return
	}
	review.UserName = author.UserName
	review.UserProfileImageURL = author.ProfileImageURL
}

func (r *reviewRepository) snapshotRestaurant(ctx context.Context, review *model.Review) {
	restaurant, err := r.restaurants.GetByID(ctx, review.RestaurantID)
	if err != nil || restaurant == nil {
		restaurant, err = r.source.GetRestaurant(ctx, review.RestaurantID)
	}
	if err != nil || restaurant == nil {
		review.RestaurantName = ""
		review.RestaurantAddress = ""
		return
	}
	review.RestaurantName = restaurant.Name
	review.RestaurantAddress = restaurant.Address
}

func (r *reviewRepository) cacheReview(ctx context.Context, review *model.Review) {
	if err := r.reviews.Upsert(ctx, review); err != nil {
		logger.Warn("Failed to mirror review into cache", logger.Fields{"review_id": review.ID, "error": err.Error()})
	}
}

// refreshRestaurantCache copies the restaurant's current aggregates into the cache.
func (r *reviewRepository) refreshRestaurantCache(ctx context.Context, restaurantID string) {
	if restaurantID == "" {
		return
	}
	restaurant, err := r.source.GetRestaurant(ctx, restaurantID)
	if err != nil {
		logger.Warn("Failed to refresh restaurant cache", logger.Fields{"restaurant_id": restaurantID, "error": err.Error()})
		return
	}
	if restaurant == nil {
		return
	}
	if err := r.restaurants.Upsert(ctx, restaurant); err != nil {
		logger.Warn("Failed to refresh restaurant cache", logger.Fields{"restaurant_id": restaurantID, "error": err.Error()})
	}
}
