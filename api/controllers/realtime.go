package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harborline/storefront-sync/api/responses"
	"github.com/harborline/storefront-sync/internal/state"
	"github.com/harborline/storefront-sync/pkg/enums"
	pkgerrors "github.com/harborline/storefront-sync/pkg/errors"
	"github.com/harborline/storefront-sync/pkg/logger"
)

// ConnectionStateSource exposes the realtime channel state.
type ConnectionStateSource interface {
	State() enums.ConnectionState
}

func RealtimeStatus(channel ConnectionStateSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if channel == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "realtime channel unavailable"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"state": string(channel.State())})
	}
}

func MessagesList(messages *state.MessageLog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if messages == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "message log unavailable"))
			return
		}

		responses.WriteSuccess(w, map[string]any{"messages": messages.Messages()})
	}
}

func OrderFetch(orders *state.OrderBook, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if orders == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order book unavailable"))
			return
		}

		orderID := chi.URLParam(r, "orderId")
		order, ok := orders.Get(orderID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not tracked"))
			return
		}

		responses.WriteSuccess(w, order)
	}
}
