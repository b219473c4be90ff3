package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/storefront-sync/internal/state"
	pkgerrors "github.com/harborline/storefront-sync/pkg/errors"
)

type fakeEngine struct {
	ensureErr error
	addErr    error
	updateErr error
	removeErr error
	clearErr  error

	ensured  int
	adds     []string
	updates  []string
	removals []string
	cleared  int
}

func (f *fakeEngine) EnsureLoaded(ctx context.Context) error {
	f.ensured++
	return f.ensureErr
}

func (f *fakeEngine) Refetch(ctx context.Context) error { return nil }

func (f *fakeEngine) Add(ctx context.Context, skuID string, quantity int) error {
	f.adds = append(f.adds, skuID)
	return f.addErr
}

func (f *fakeEngine) Update(ctx context.Context, itemID string, quantity int) error {
	f.updates = append(f.updates, itemID)
	return f.updateErr
}

func (f *fakeEngine) Remove(ctx context.Context, itemID string) error {
	f.removals = append(f.removals, itemID)
	return f.removeErr
}

func (f *fakeEngine) Clear(ctx context.Context) error {
	f.cleared++
	return f.clearErr
}

type fakeSnapshots struct {
	snap state.CartSnapshot
}

func (f *fakeSnapshots) Snapshot() state.CartSnapshot { return f.snap }

func sampleSnapshot() state.CartSnapshot {
	return state.BuildSnapshot([]state.CartItem{{
		ID:            "line-1",
		SKUID:         "sku-1",
		Quantity:      2,
		UnitIncrement: 1,
		UnitPrice:     decimal.NewFromFloat(4.50),
	}})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestCartFetchEnsuresLoadAndReturnsSnapshot(t *testing.T) {
	eng := &fakeEngine{}
	snapshots := &fakeSnapshots{snap: sampleSnapshot()}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	CartFetch(eng, snapshots, nil)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, eng.ensured)

	envelope := decodeEnvelope(t, rec)
	var snap state.CartSnapshot
	require.NoError(t, json.Unmarshal(envelope["data"], &snap))
	assert.Equal(t, 2, snap.TotalItems)
}

func TestCartFetchSurfacesLoadFailure(t *testing.T) {
	eng := &fakeEngine{ensureErr: pkgerrors.New(pkgerrors.CodeDependency, "store down")}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	CartFetch(eng, &fakeSnapshots{}, nil)(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), string(pkgerrors.CodeDependency))
}

func TestCartAddItemValidatesBody(t *testing.T) {
	eng := &fakeEngine{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"skuId":"","quantity":0}`))
	CartAddItem(eng, &fakeSnapshots{}, nil)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, eng.adds)
}

func TestCartAddItemForwardsToEngine(t *testing.T) {
	eng := &fakeEngine{}
	snapshots := &fakeSnapshots{snap: sampleSnapshot()}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"skuId":"sku-1","quantity":2}`))
	CartAddItem(eng, snapshots, nil)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"sku-1"}, eng.adds)
}

func TestCartAddItemSurfacesMutationError(t *testing.T) {
	eng := &fakeEngine{addErr: pkgerrors.New(pkgerrors.CodeValidation, "quantity above stock")}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"skuId":"sku-1","quantity":99}`))
	CartAddItem(eng, &fakeSnapshots{}, nil)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantity above stock")
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCartUpdateItemRequiresPathParam(t *testing.T) {
	eng := &fakeEngine{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/",
		strings.NewReader(`{"quantity":3}`))
	CartUpdateItem(eng, &fakeSnapshots{}, nil)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, eng.updates)
}

func TestCartUpdateItemForwardsToEngine(t *testing.T) {
	eng := &fakeEngine{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/line-1",
		strings.NewReader(`{"quantity":3}`))
	req = withURLParam(req, "itemId", "line-1")
	CartUpdateItem(eng, &fakeSnapshots{}, nil)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"line-1"}, eng.updates)
}

func TestCartRemoveItemNotFound(t *testing.T) {
	eng := &fakeEngine{removeErr: pkgerrors.New(pkgerrors.CodeNotFound, "line gone")}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/line-9", nil)
	req = withURLParam(req, "itemId", "line-9")
	CartRemoveItem(eng, &fakeSnapshots{}, nil)(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartClear(t *testing.T) {
	eng := &fakeEngine{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	CartClear(eng, &fakeSnapshots{}, nil)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, eng.cleared)
}
