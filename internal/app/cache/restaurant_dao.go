package cache

import (
	"context"
	"errors"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RestaurantDAO struct {
	db  *gorm.DB
	hub *ChangeHub
}

func NewRestaurantDAO(db *gorm.DB, hub *ChangeHub) *RestaurantDAO {
	return &RestaurantDAO{db: db, hub: hub}
}

// GetByID returns nil, nil when the restaurant is not cached.
func (d *RestaurantDAO) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	err := d.db.WithContext(ctx).First(&restaurant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to read cached restaurant", err, logger.Fields{"restaurant_id": id})
		return nil, err
	}
	return &restaurant, nil
}

func (d *RestaurantDAO) Observe(ctx context.Context, id string) *Watch[*model.Restaurant] {
	return observe(ctx, d.hub, restaurantTopic(id), func(ctx context.Context) (*model.Restaurant, error) {
		return d.GetByID(ctx, id)
	})
}

// List returns cached restaurants newest first, strictly older than before when set.
func (d *RestaurantDAO) List(ctx context.Context, limit int, before *int64) ([]model.Restaurant, error) {
	tx := d.db.WithContext(ctx).Model(&model.Restaurant{})
	if before != nil {
		tx = tx.Where("created_at < ?", *before)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	restaurants := []model.Restaurant{}
	if err := tx.Order("created_at DESC").Order("id DESC").Find(&restaurants).Error; err != nil {
		logger.Error("Failed to list cached restaurants", err)
		return nil, err
	}
	return restaurants, nil
}

func (d *RestaurantDAO) Upsert(ctx context.Context, restaurant *model.Restaurant) error {
	if err := d.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(restaurant).Error; err != nil {
		logger.Error("Failed to cache restaurant", err, logger.Fields{"restaurant_id": restaurant.ID})
		return err
	}
	d.hub.Publish(topicRestaurants, restaurantTopic(restaurant.ID))
	return nil
}

func (d *RestaurantDAO) UpsertAll(ctx context.Context, restaurants []model.Restaurant) error {
	if len(restaurants) == 0 {
		return nil
	}
	if err := d.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&restaurants).Error; err != nil {
		logger.Error("Failed to cache restaurants", err, logger.Fields{"count": len(restaurants)})
		return err
	}
	topics := []string{topicRestaurants}
	for _, r := range restaurants {
		topics = append(topics, restaurantTopic(r.ID))
	}
	d.hub.Publish(topics...)
	return nil
}

func (d *RestaurantDAO) DeleteByID(ctx context.Context, id string) error {
	if err := d.db.WithContext(ctx).Delete(&model.Restaurant{}, "id = ?", id).Error; err != nil {
		logger.Error("Failed to delete cached restaurant", err, logger.Fields{"restaurant_id": id})
		return err
	}
	d.hub.Publish(topicRestaurants, restaurantTopic(id))
	return nil
}
