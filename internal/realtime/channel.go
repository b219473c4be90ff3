package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/harborline/storefront-sync/pkg/config"
	"github.com/harborline/storefront-sync/pkg/enums"
	"github.com/harborline/storefront-sync/pkg/errors"
	"github.com/harborline/storefront-sync/pkg/logger"
	"github.com/harborline/storefront-sync/pkg/metrics"
)

// CredentialSource yields the current bearer credential. An empty string
// means none is available and the channel must stay disconnected.
type CredentialSource interface {
	Token() string
}

// Handler consumes decoded events. Implemented by Dispatcher.
type Handler interface {
	Dispatch(ctx context.Context, event Event) error
}

// Channel maintains the persistent realtime connection. It owns no backoff
// policy of its own: every probe interval it checks whether a usable
// credential exists and the socket is down, and reconnects if so. Transport
// failures are reflected into ConnectionState and otherwise absorbed.
type Channel struct {
	cfg     config.RealtimeConfig
	creds   CredentialSource
	handler Handler
	metrics *metrics.SyncMetrics
	logg    *logger.Logger

	mu    sync.Mutex
	state enums.ConnectionState
	conn  *websocket.Conn
}

func NewChannel(cfg config.RealtimeConfig, creds CredentialSource, handler Handler, m *metrics.SyncMetrics, logg *logger.Logger) (*Channel, error) {
	if cfg.URL == "" {
		return nil, errors.New(errors.CodeValidation, "realtime url is required")
	}
	if creds == nil {
		return nil, errors.New(errors.CodeValidation, "credential source is required")
	}
	if handler == nil {
		return nil, errors.New(errors.CodeValidation, "event handler is required")
	}
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "realtime"})
	}
	return &Channel{
		cfg:     cfg,
		creds:   creds,
		handler: handler,
		metrics: m,
		logg:    logg,
		state:   enums.ConnectionDisconnected,
	}, nil
}

// State returns the current connection state.
func (c *Channel) State() enums.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run drives the connection until ctx is cancelled. Without a usable
// credential the channel idles disconnected and re-probes every interval; a
// lost connection is retried the same way.
func (c *Channel) Run(ctx context.Context) error {
	interval := c.cfg.ProbeInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		token := c.creds.Token()
		if credentialUsable(token) {
			if err := c.connectAndServe(ctx, token); err != nil && ctx.Err() == nil {
				c.logg.Warn(ctx, "realtime connection lost")
				c.metrics.IncReconnect()
			}
		}
		c.setState(enums.ConnectionDisconnected)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Disconnect tears the socket down. Run, if active, will reconnect on the
// next probe as long as a credential is still available; callers that want a
// lasting disconnect clear the credential first.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.state = enums.ConnectionDisconnected
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// Emit writes one event to the socket. Fails fast when not connected.
func (c *Channel) Emit(ctx context.Context, event Event) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == enums.ConnectionConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return errors.New(errors.CodeConflict, "realtime channel is not connected")
	}

	deadline := time.Now().Add(c.writeTimeout())
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "setting write deadline")
	}
	if err := conn.WriteJSON(event); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "writing realtime event")
	}
	return nil
}

func (c *Channel) connectAndServe(ctx context.Context, token string) error {
	c.setState(enums.ConnectionConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.setState(enums.ConnectionDisconnected)
		return errors.Wrap(errors.CodeDependency, err, "dialing realtime endpoint")
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := conn.WriteJSON(newSubscribeFrame()); err != nil {
		c.Disconnect()
		return errors.Wrap(errors.CodeDependency, err, "subscribing to topics")
	}

	c.setState(enums.ConnectionConnected)
	c.logg.Info(ctx, "realtime channel connected")

	err = c.readLoop(ctx, conn)
	c.Disconnect()
	return err
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			return err
		}
		if err := c.handler.Dispatch(ctx, event); err != nil {
			c.logg.Error(ctx, "dispatching realtime event failed", err)
		}
	}
}

func (c *Channel) setState(state enums.ConnectionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Channel) writeTimeout() time.Duration {
	if c.cfg.WriteTimeout > 0 {
		return c.cfg.WriteTimeout
	}
	return 5 * time.Second
}

// credentialUsable rejects empty tokens and JWTs whose expiry has already
// passed, without a network round trip. Opaque non-JWT tokens pass through;
// the server remains the authority on their validity.
func credentialUsable(token string) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Now().Before(exp.Time)
}
