package cache

import (
	"context"
	"errors"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserDAO struct {
	db  *gorm.DB
	hub *ChangeHub
}

func NewUserDAO(db *gorm.DB, hub *ChangeHub) *UserDAO {
	return &UserDAO{db: db, hub: hub}
}

// GetByID returns nil, nil when the user is not cached.
func (d *UserDAO) GetByID(ctx context.Context, uid string) (*model.User, error) {
	var user model.User
	err := d.db.WithContext(ctx).First(&user, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to read cached user", err, logger.Fields{"uid": uid})
		return nil, err
	}
	return &user, nil
}

// Observe streams the cached user; nil while the row is absent.
func (d *UserDAO) Observe(ctx context.Context, uid string) *Watch[*model.User] {
	return observe(ctx, d.hub, userTopic(uid), func(ctx context.Context) (*model.User, error) {
		return d.GetByID(ctx, uid)
	})
}

func (d *UserDAO) Upsert(ctx context.Context, user *model.User) error {
	if err := d.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(user).Error; err != nil {
		logger.Error("Failed to cache user", err, logger.Fields{"uid": user.UID})
		return err
	}
	d.hub.Publish(userTopic(user.UID))
	return nil
}

func (d *UserDAO) DeleteByID(ctx context.Context, uid string) error {
	if err := d.db.WithContext(ctx).Delete(&model.User{}, "uid = ?", uid).Error; err != nil {
		logger.Error("Failed to delete cached user", err, logger.Fields{"uid": uid})
		return err
	}
	d.hub.Publish(userTopic(uid))
	return nil
}
