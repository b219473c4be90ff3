package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harborline/storefront-sync/internal/state"
	"github.com/harborline/storefront-sync/pkg/config"
	pkgerrors "github.com/harborline/storefront-sync/pkg/errors"
	"github.com/shopspring/decimal"
)

const errorBodyReadLimit int64 = 4096

// CredentialSource supplies the bearer credential attached to requests.
type CredentialSource interface {
	Token() string
}

// CartAPI is the surface the mutation engine depends on. No retries happen at
// this layer; retry policy belongs to the caller.
type CartAPI interface {
	FetchCart(ctx context.Context) (state.CartSnapshot, error)
	AddItem(ctx context.Context, skuID string, quantity int) (state.CartItem, error)
	UpdateItem(ctx context.Context, itemID string, quantity int) (state.CartItem, error)
	RemoveItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
}

// Client issues requests against the authoritative cart and catalog API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      CredentialSource
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the remote store client.
func NewClient(cfg config.RemoteConfig, creds CredentialSource, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("remote base url is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("credential source is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		creds:      creds,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type cartItemPayload struct {
	ID            string  `json:"id"`
	SKUID         string  `json:"skuId"`
	Quantity      int     `json:"quantity"`
	UnitIncrement int     `json:"unitIncrement"`
	UnitPrice     float64 `json:"unitPrice"`
}

type cartPayload struct {
	Items []cartItemPayload `json:"items"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FetchCart returns the full authoritative cart snapshot.
func (c *Client) FetchCart(ctx context.Context) (state.CartSnapshot, error) {
	var payload cartPayload
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &payload, false); err != nil {
		return state.CartSnapshot{}, err
	}
	items := make([]state.CartItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, item.toDomain())
	}
	return state.BuildSnapshot(items), nil
}

// AddItem creates a new cart line for the SKU.
func (c *Client) AddItem(ctx context.Context, skuID string, quantity int) (state.CartItem, error) {
	if strings.TrimSpace(skuID) == "" {
		return state.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	if quantity <= 0 {
		return state.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	body := map[string]any{"skuId": skuID, "quantity": quantity}
	var payload cartItemPayload
	if err := c.do(ctx, http.MethodPost, "/cart/items", body, &payload, true); err != nil {
		return state.CartItem{}, err
	}
	return payload.toDomain(), nil
}

// UpdateItem changes the quantity of an existing cart line.
func (c *Client) UpdateItem(ctx context.Context, itemID string, quantity int) (state.CartItem, error) {
	if strings.TrimSpace(itemID) == "" {
		return state.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity <= 0 {
		return state.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	body := map[string]any{"quantity": quantity}
	var payload cartItemPayload
	if err := c.do(ctx, http.MethodPatch, "/cart/items/"+itemID, body, &payload, true); err != nil {
		return state.CartItem{}, err
	}
	return payload.toDomain(), nil
}

// RemoveItem deletes a cart line.
func (c *Client) RemoveItem(ctx context.Context, itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	return c.do(ctx, http.MethodDelete, "/cart/items/"+itemID, nil, nil, true)
}

// ClearCart deletes every line in the cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil, true)
}

// GetProduct is a stateless catalog passthrough. The upstream body is returned
// verbatim; a 404 maps to a typed not-found and any other non-2xx collapses to
// a generic dependency failure with the upstream status discarded.
func (c *Client) GetProduct(ctx context.Context, skuID string) (json.RawMessage, error) {
	if strings.TrimSpace(skuID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products/"+skuID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build product request")
	}
	c.attachCredential(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute product request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog request failed")
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read product response")
	}
	return json.RawMessage(raw), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, dest any, mutating bool) error {
	token := c.creds.Token()
	if mutating && token == "" {
		// Mutations are refused before any network call is made.
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session credential required")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.attachCredential(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapFailure(resp)
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	return nil
}

func (c *Client) attachCredential(req *http.Request) {
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) mapFailure(resp *http.Response) error {
	var envelope errorEnvelope
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	_ = json.Unmarshal(raw, &envelope)

	message := strings.TrimSpace(envelope.Message)
	if message == "" {
		message = strings.TrimSpace(envelope.Error)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if message == "" {
			message = "request rejected"
		}
		return pkgerrors.New(pkgerrors.CodeValidation, message)
	case http.StatusUnauthorized, http.StatusForbidden:
		if message == "" {
			message = "session credential rejected"
		}
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case http.StatusNotFound:
		if message == "" {
			message = "resource not found"
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	default:
		if message == "" {
			message = "remote store unavailable"
		}
		return pkgerrors.New(pkgerrors.CodeDependency, message)
	}
}

func (p cartItemPayload) toDomain() state.CartItem {
	return state.CartItem{
		ID:            p.ID,
		SKUID:         p.SKUID,
		Quantity:      p.Quantity,
		UnitIncrement: p.UnitIncrement,
		UnitPrice:     decimal.NewFromFloat(p.UnitPrice),
	}
}
