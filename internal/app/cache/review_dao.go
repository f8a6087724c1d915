package cache

import (
	"context"
	"errors"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewQuery selects cached reviews newest first. Before is an exclusive
// createdAt cursor; a Limit of zero or less returns every match.
type ReviewQuery struct {
	UserID       string
	RestaurantID string
	Before       *int64
	Limit        int
}

type ReviewDAO struct {
	db  *gorm.DB
	hub *ChangeHub
}

func NewReviewDAO(db *gorm.DB, hub *ChangeHub) *ReviewDAO {
	return &ReviewDAO{db: db, hub: hub}
}

// GetByID returns nil, nil when the review is not cached.
func (d *ReviewDAO) GetByID(ctx context.Context, id string) (*model.Review, error) {
	var review model.Review
	err := d.db.WithContext(ctx).First(&review, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to read cached review", err, logger.Fields{"review_id": id})
		return nil, err
	}
	return &review, nil
}

func (d *ReviewDAO) ObserveByID(ctx context.Context, id string) *Watch[*model.Review] {
	return observe(ctx, d.hub, reviewTopic(id), func(ctx context.Context) (*model.Review, error) {
		return d.GetByID(ctx, id)
	})
}

func (d *ReviewDAO) List(ctx context.Context, q ReviewQuery) ([]model.Review, error) {
	tx := d.db.WithContext(ctx).Model(&model.Review{})
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	if q.RestaurantID != "" {
		tx = tx.Where("restaurant_id = ?", q.RestaurantID)
	}
	if q.Before != nil {
		tx = tx.Where("created_at < ?", *q.Before)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	reviews := []model.Review{}
	if err := tx.Order("created_at DESC").Order("id DESC").Find(&reviews).Error; err != nil {
		logger.Error("Failed to list cached reviews", err, logger.Fields{
			"user_id":       q.UserID,
			"restaurant_id": q.RestaurantID,
		})
		return nil, err
	}
	return reviews, nil
}

// ObserveList re-runs q after every review change.
func (d *ReviewDAO) ObserveList(ctx context.Context, q ReviewQuery) *Watch[[]model.Review] {
	return observe(ctx, d.hub, topicReviews, func(ctx context.Context) ([]model.Review, error) {
		return d.List(ctx, q)
	})
}

func (d *ReviewDAO) Upsert(ctx context.Context, review *model.Review) error {
	if err := d.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(review).Error; err != nil {
		logger.Error("Failed to cache review", err, logger.Fields{"review_id": review.ID})
		return err
	}
	d.hub.Publish(topicReviews, reviewTopic(review.ID))
	return nil
}

func (d *ReviewDAO) UpsertAll(ctx context.Context, reviews []model.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	if err := d.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&reviews).Error; err != nil {
		logger.Error("Failed to cache reviews", err, logger.Fields{"count": len(reviews)})
		return err
	}
	topics := make([]string, 0, len(reviews)+1)
	topics = append(topics, topicReviews)
	for _, r := range reviews {
		topics = append(topics, reviewTopic(r.ID))
	}
	d.hub.Publish(topics...)
	return nil
}

func (d *ReviewDAO) DeleteByID(ctx context.Context, id string) error {
	if err := d.db.WithContext(ctx).Delete(&model.Review{}, "id = ?", id).Error; err != nil {
		logger.Error("Failed to delete cached review", err, logger.Fields{"review_id": id})
		return err
	}
	d.hub.Publish(topicReviews, reviewTopic(id))
	return nil
}

// DeleteAll empties the review cache.
func (d *ReviewDAO) DeleteAll(ctx context.Context) error {
	if err := d.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Review{}).Error; err != nil {
		logger.Error("Failed to clear cached reviews", err)
		return err
	}
	d.hub.Publish(topicReviews)
	return nil
}

func (d *ReviewDAO) Count(ctx context.Context) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&model.Review{}).Count(&count).Error
	return count, err
}
