package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harborline/storefront-sync/api/responses"
	"github.com/harborline/storefront-sync/api/validators"
	"github.com/harborline/storefront-sync/internal/state"
	pkgerrors "github.com/harborline/storefront-sync/pkg/errors"
	"github.com/harborline/storefront-sync/pkg/logger"
)

// CartEngine is the mutation surface the cart controllers drive.
type CartEngine interface {
	EnsureLoaded(ctx context.Context) error
	Refetch(ctx context.Context) error
	Add(ctx context.Context, skuID string, quantity int) error
	Update(ctx context.Context, itemID string, quantity int) error
	Remove(ctx context.Context, itemID string) error
	Clear(ctx context.Context) error
}

// SnapshotSource yields the current local cart snapshot.
type SnapshotSource interface {
	Snapshot() state.CartSnapshot
}

// CartFetch triggers the once-per-session load and returns the local
// snapshot. Repeat calls are cheap: the load gate makes them no-ops.
func CartFetch(eng CartEngine, snapshots SnapshotSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if eng == nil || snapshots == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}

		if err := eng.EnsureLoaded(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshots.Snapshot())
	}
}

// CartRefresh forces an authoritative refetch regardless of the load gate.
func CartRefresh(eng CartEngine, snapshots SnapshotSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if eng == nil || snapshots == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}

		if err := eng.Refetch(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshots.Snapshot())
	}
}

type addItemRequest struct {
	SKUID    string `json:"skuId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

func CartAddItem(eng CartEngine, snapshots SnapshotSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if eng == nil || snapshots == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := eng.Add(r.Context(), payload.SKUID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshots.Snapshot())
	}
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func CartUpdateItem(eng CartEngine, snapshots SnapshotSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if eng == nil || snapshots == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}

		itemID := chi.URLParam(r, "itemId")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := eng.Update(r.Context(), itemID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshots.Snapshot())
	}
}

func CartRemoveItem(eng CartEngine, snapshots SnapshotSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if eng == nil || snapshots == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}

		itemID := chi.URLParam(r, "itemId")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		if err := eng.Remove(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshots.Snapshot())
	}
}

func CartClear(eng CartEngine, snapshots SnapshotSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if eng == nil || snapshots == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart engine unavailable"))
			return
		}

		if err := eng.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshots.Snapshot())
	}
}
