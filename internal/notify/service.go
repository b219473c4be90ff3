// Package notify holds the session's in-app notification inbox. The in-memory
// list is the hot path; the sqlite cache behind Repository is a write-behind
// so the inbox survives process restarts. Cache failures are logged and never
// block the inbox itself.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harborline/storefront-sync/pkg/db/models"
	"github.com/harborline/storefront-sync/pkg/enums"
	"github.com/harborline/storefront-sync/pkg/errors"
	"github.com/harborline/storefront-sync/pkg/logger"
)

type Service struct {
	repo Repository
	logg *logger.Logger

	mu    sync.RWMutex
	items []models.Notification
}

// NewService builds the inbox. repo may be nil when the cache is disabled;
// otherwise previously cached notifications are loaded as the starting list.
func NewService(ctx context.Context, repo Repository, logg *logger.Logger) (*Service, error) {
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "notify"})
	}
	svc := &Service{repo: repo, logg: logg}

	if repo != nil {
		cached, err := repo.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		svc.items = cached
	}
	return svc, nil
}

// Append stores a new notification. A missing id or timestamp is filled in.
// Returns the stored copy.
func (s *Service) Append(ctx context.Context, notification models.Notification) (models.Notification, error) {
	if !notification.Type.IsValid() {
		notification.Type = enums.NotificationTypeGeneral
	}
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.items = append(s.items, notification)
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Save(ctx, notification); err != nil {
			s.logg.Warn(ctx, "caching notification failed")
		}
	}
	return notification, nil
}

// List returns notifications in arrival order, optionally only unread ones.
func (s *Service) List(unreadOnly bool) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Notification, 0, len(s.items))
	for _, item := range s.items {
		if unreadOnly && item.Read() {
			continue
		}
		out = append(out, item)
	}
	return out
}

// UnreadCount returns how many notifications are still unread.
func (s *Service) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		if !item.Read() {
			count++
		}
	}
	return count
}

// MarkRead flips the read flag on a single notification.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	readAt := time.Now().UTC()

	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ID == id {
			if s.items[i].ReadAt == nil {
				s.items[i].ReadAt = &readAt
			}
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return errors.New(errors.CodeNotFound, "notification not found")
	}
	if s.repo != nil {
		if err := s.repo.MarkRead(ctx, id, readAt); err != nil {
			s.logg.Warn(ctx, "caching read flag failed")
		}
	}
	return nil
}

// MarkAllRead flips the read flag on every unread notification.
func (s *Service) MarkAllRead(ctx context.Context) {
	readAt := time.Now().UTC()

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ReadAt == nil {
			s.items[i].ReadAt = &readAt
		}
	}
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.MarkAllRead(ctx, readAt); err != nil {
			s.logg.Warn(ctx, "caching read flags failed")
		}
	}
}

// Clear empties the inbox.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.DeleteAll(ctx); err != nil {
			s.logg.Warn(ctx, "clearing cached notifications failed")
		}
	}
}
