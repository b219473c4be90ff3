package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type publishCall struct {
	channel string
	message string
}

type mockCmdable struct {
	data         map[string]string
	publishCalls []publishCall
	pingErr      error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: map[string]string{}}
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if m.pingErr != nil {
		cmd.SetErr(m.pingErr)
	}
	return cmd
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusCmd(ctx)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	m.publishCalls = append(m.publishCalls, publishCall{channel: channel, message: fmt.Sprint(message)})
	return redis.NewIntResult(1, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestSyncKeyIsNamespaced(t *testing.T) {
	client := &Client{}
	if got := client.SyncKey(); got != "sf:cart:sync" {
		t.Fatalf("unexpected sync key %q", got)
	}
}

func TestWriteSyncTokenStoresAndPublishes(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.WriteSyncToken(ctx, "1700000000001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.data["sf:cart:sync"] != "1700000000001" {
		t.Fatalf("sync token not stored, data=%v", mock.data)
	}
	if len(mock.publishCalls) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(mock.publishCalls))
	}
	if mock.publishCalls[0].channel != "sf:cart:sync" {
		t.Fatalf("unexpected channel %q", mock.publishCalls[0].channel)
	}
	if mock.publishCalls[0].message != "1700000000001" {
		t.Fatalf("unexpected message %q", mock.publishCalls[0].message)
	}
}

func TestReadSyncTokenMissingKeyReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	token, err := client.ReadSyncToken(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}
}

func TestClientGuardsAgainstNilStore(t *testing.T) {
	var client *Client
	if err := client.WriteSyncToken(context.Background(), "x"); err == nil {
		t.Fatal("expected error for uninitialized client")
	}
	if err := (&Client{}).Ping(context.Background()); err == nil {
		t.Fatal("expected ping error for uninitialized client")
	}
}
