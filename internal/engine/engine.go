package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/harborline/storefront-sync/internal/remote"
	"github.com/harborline/storefront-sync/internal/state"
	"github.com/harborline/storefront-sync/pkg/errors"
	"github.com/harborline/storefront-sync/pkg/logger"
	"github.com/harborline/storefront-sync/pkg/metrics"
)

// Broadcaster notifies sibling sessions that shared cart state changed and a
// refetch is due. Implemented by the cross-tab channel; nil disables it.
type Broadcaster interface {
	Broadcast(ctx context.Context) error
}

// Engine coordinates every cart mutation: it applies the sanctioned optimistic
// badge bump, forwards the mutation to the remote store, and reconciles local
// state with an authoritative refetch whether the mutation succeeded or not.
type Engine struct {
	remote    remote.CartAPI
	store     *state.CartStore
	broadcast Broadcaster
	metrics   *metrics.SyncMetrics
	logg      *logger.Logger

	gate loadGate

	pendingMu   sync.Mutex
	pendingAdds map[string]struct{}
}

type Params struct {
	Remote      remote.CartAPI
	Store       *state.CartStore
	Broadcaster Broadcaster
	Metrics     *metrics.SyncMetrics
	Logger      *logger.Logger
}

func New(params Params) (*Engine, error) {
	if params.Remote == nil {
		return nil, errors.New(errors.CodeValidation, "remote cart client is required")
	}
	if params.Store == nil {
		return nil, errors.New(errors.CodeValidation, "cart store is required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "engine"})
	}
	return &Engine{
		remote:      params.Remote,
		store:       params.Store,
		broadcast:   params.Broadcaster,
		metrics:     params.Metrics,
		logg:        params.Logger,
		pendingAdds: map[string]struct{}{},
	}, nil
}

// SetBroadcaster wires the cross-tab channel in after construction; the
// channel itself takes the engine as its refetcher, so one of the two has to
// be attached late. Call before the engine starts serving.
func (e *Engine) SetBroadcaster(b Broadcaster) {
	e.broadcast = b
}

// EnsureLoaded performs the initial cart fetch at most once per session.
// Concurrent callers while the first fetch is in flight return immediately;
// a failed first fetch re-arms the gate so a later caller retries.
func (e *Engine) EnsureLoaded(ctx context.Context) error {
	if !e.gate.begin() {
		return nil
	}
	if err := e.Refetch(ctx); err != nil {
		e.gate.fail()
		return err
	}
	e.gate.succeed()
	return nil
}

// Loaded reports whether the initial fetch has completed successfully.
func (e *Engine) Loaded() bool {
	return e.gate.loaded()
}

// Refetch pulls the authoritative cart from the remote store and replaces
// local state wholesale. Stale responses, issued before a newer refetch or a
// clear, are discarded.
func (e *Engine) Refetch(ctx context.Context) error {
	seq := e.store.BeginRefetch()
	start := time.Now()

	snap, err := e.remote.FetchCart(ctx)
	e.metrics.ObserveRefetchDuration(time.Since(start))
	if err != nil {
		e.store.FailRefetch(seq, publicMessage(err))
		e.metrics.IncRefetch("failed")
		e.logg.Error(ctx, "cart refetch failed", err)
		return err
	}

	if e.store.ApplyAuthoritative(seq, snap) {
		e.metrics.IncRefetch("applied")
	} else {
		e.metrics.IncRefetch("stale")
	}
	return nil
}

// Add sends an add-to-cart mutation. When the SKU is not yet in the local
// cart, the item counter is bumped by one before the network call; the bump is
// never reverted directly, the follow-up refetch replaces the whole snapshot
// with server truth on both the success and the failure path. At most one
// optimistic bump per SKU is outstanding at a time.
func (e *Engine) Add(ctx context.Context, skuID string, quantity int) error {
	if strings.TrimSpace(skuID) == "" {
		return errors.New(errors.CodeValidation, "sku id is required")
	}
	if quantity < 1 {
		return errors.New(errors.CodeValidation, "quantity must be at least 1")
	}

	bumped := false
	if !e.store.Snapshot().HasSKU(skuID) && e.claimPending(skuID) {
		bumped = true
		e.store.Patch(func(s *state.CartSnapshot) {
			s.TotalItems++
		})
		e.metrics.IncOptimisticBump()
	}

	_, addErr := e.remote.AddItem(ctx, skuID, quantity)
	refErr := e.Refetch(ctx)
	if bumped {
		e.releasePending(skuID)
	}

	if addErr != nil {
		e.metrics.IncMutation("add", "failed")
		return addErr
	}
	if refErr != nil {
		e.logg.Warn(ctx, "refetch after add failed, local state is last-known")
	}
	e.metrics.IncMutation("add", "applied")
	e.notifySiblings(ctx)
	return nil
}

// Update changes the quantity of an existing cart line. A not-found response
// means the line vanished server-side; the refetch purges the dangling local
// reference before the error is surfaced.
func (e *Engine) Update(ctx context.Context, itemID string, quantity int) error {
	if strings.TrimSpace(itemID) == "" {
		return errors.New(errors.CodeValidation, "item id is required")
	}
	if quantity < 1 {
		return errors.New(errors.CodeValidation, "quantity must be at least 1")
	}

	if _, err := e.remote.UpdateItem(ctx, itemID, quantity); err != nil {
		e.metrics.IncMutation("update", "failed")
		if errors.IsCode(err, errors.CodeNotFound) {
			if refErr := e.Refetch(ctx); refErr != nil {
				e.logg.Warn(ctx, "refetch after missing line failed")
			}
		}
		return err
	}

	if err := e.Refetch(ctx); err != nil {
		e.logg.Warn(ctx, "refetch after update failed, local state is last-known")
	}
	e.metrics.IncMutation("update", "applied")
	e.notifySiblings(ctx)
	return nil
}

// Remove deletes a cart line.
func (e *Engine) Remove(ctx context.Context, itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return errors.New(errors.CodeValidation, "item id is required")
	}

	if err := e.remote.RemoveItem(ctx, itemID); err != nil {
		e.metrics.IncMutation("remove", "failed")
		if errors.IsCode(err, errors.CodeNotFound) {
			if refErr := e.Refetch(ctx); refErr != nil {
				e.logg.Warn(ctx, "refetch after missing line failed")
			}
		}
		return err
	}

	if err := e.Refetch(ctx); err != nil {
		e.logg.Warn(ctx, "refetch after remove failed, local state is last-known")
	}
	e.metrics.IncMutation("remove", "applied")
	e.notifySiblings(ctx)
	return nil
}

// Clear empties the cart remotely, then resets local state synchronously. The
// reset invalidates any refetch still in flight, so a slow response cannot
// resurrect cleared items. The load gate is re-armed for the next session use.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.remote.ClearCart(ctx); err != nil {
		e.metrics.IncMutation("clear", "failed")
		return err
	}

	e.store.Reset()
	e.gate.reset()
	e.metrics.IncMutation("clear", "applied")
	e.notifySiblings(ctx)
	return nil
}

func (e *Engine) notifySiblings(ctx context.Context) {
	if e.broadcast == nil {
		return
	}
	if err := e.broadcast.Broadcast(ctx); err != nil {
		e.logg.Warn(ctx, "cross-tab broadcast failed")
	}
}

func (e *Engine) claimPending(skuID string) bool {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	if _, ok := e.pendingAdds[skuID]; ok {
		return false
	}
	e.pendingAdds[skuID] = struct{}{}
	return true
}

func (e *Engine) releasePending(skuID string) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	delete(e.pendingAdds, skuID)
}

func publicMessage(err error) string {
	if typed := errors.As(err); typed != nil {
		return errors.MetadataFor(typed.Code()).PublicMessage
	}
	return "cart refresh failed"
}
