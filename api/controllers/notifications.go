package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborline/storefront-sync/api/responses"
	"github.com/harborline/storefront-sync/pkg/db/models"
	pkgerrors "github.com/harborline/storefront-sync/pkg/errors"
	"github.com/harborline/storefront-sync/pkg/logger"
)

// Inbox is the notification surface the controllers drive.
type Inbox interface {
	List(unreadOnly bool) []models.Notification
	UnreadCount() int
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context)
	Clear(ctx context.Context)
}

type notificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
}

func NotificationsList(inbox Inbox, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if inbox == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inbox unavailable"))
			return
		}

		unreadOnly := r.URL.Query().Get("unread") == "true"
		responses.WriteSuccess(w, notificationListResponse{
			Notifications: inbox.List(unreadOnly),
			UnreadCount:   inbox.UnreadCount(),
		})
	}
}

func NotificationsMarkRead(inbox Inbox, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if inbox == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inbox unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "notificationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification id"))
			return
		}

		if err := inbox.MarkRead(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

func NotificationsMarkAllRead(inbox Inbox, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if inbox == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inbox unavailable"))
			return
		}

		inbox.MarkAllRead(r.Context())
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

func NotificationsClear(inbox Inbox, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if inbox == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inbox unavailable"))
			return
		}

		inbox.Clear(r.Context())
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
