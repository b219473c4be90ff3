package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harborline/storefront-sync/pkg/db"
	"github.com/harborline/storefront-sync/pkg/db/models"
	"github.com/harborline/storefront-sync/pkg/errors"
)

// Repository persists the inbox so it survives process restarts. The service
// keeps the hot copy in memory and writes through here.
type Repository interface {
	Save(ctx context.Context, notification models.Notification) error
	MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) error
	MarkAllRead(ctx context.Context, readAt time.Time) error
	LoadAll(ctx context.Context) ([]models.Notification, error)
	DeleteAll(ctx context.Context) error
}

type cacheRepository struct {
	client *db.Client
}

// NewCacheRepository builds the sqlite-backed inbox repository.
func NewCacheRepository(client *db.Client) (Repository, error) {
	if client == nil {
		return nil, errors.New(errors.CodeValidation, "cache client is required")
	}
	return &cacheRepository{client: client}, nil
}

func (r *cacheRepository) Save(ctx context.Context, notification models.Notification) error {
	err := r.client.DB().
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&notification).Error
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "saving notification")
	}
	return nil
}

func (r *cacheRepository) MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) error {
	err := r.client.DB().
		WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("read_at", readAt).Error
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "marking notification read")
	}
	return nil
}

func (r *cacheRepository) MarkAllRead(ctx context.Context, readAt time.Time) error {
	err := r.client.DB().
		WithContext(ctx).
		Model(&models.Notification{}).
		Where("read_at IS NULL").
		Update("read_at", readAt).Error
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "marking notifications read")
	}
	return nil
}

func (r *cacheRepository) LoadAll(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	err := r.client.DB().
		WithContext(ctx).
		Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading notifications")
	}
	return out, nil
}

func (r *cacheRepository) DeleteAll(ctx context.Context) error {
	err := r.client.DB().
		WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Notification{}).Error
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "clearing notifications")
	}
	return nil
}
