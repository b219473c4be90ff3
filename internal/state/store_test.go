package state

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []CartItem {
	return []CartItem{
		{ID: "i1", SKUID: "s1", Quantity: 2, UnitIncrement: 1, UnitPrice: decimal.NewFromFloat(4.50)},
		{ID: "i2", SKUID: "s2", Quantity: 4, UnitIncrement: 2, UnitPrice: decimal.NewFromFloat(10)},
	}
}

func TestBuildSnapshotDerivesTotals(t *testing.T) {
	snap := BuildSnapshot(sampleItems())

	assert.Equal(t, 6, snap.TotalItems)
	assert.True(t, snap.TotalAmount.Equal(decimal.NewFromFloat(49)), "got %s", snap.TotalAmount)
	assert.True(t, snap.HasSKU("s1"))
	assert.False(t, snap.HasSKU("s9"))
}

func TestApplyAuthoritativeIsIdempotent(t *testing.T) {
	store := NewCartStore()
	snap := BuildSnapshot(sampleItems())

	seq1 := store.BeginRefetch()
	require.True(t, store.ApplyAuthoritative(seq1, snap))
	first := store.Snapshot()

	seq2 := store.BeginRefetch()
	require.True(t, store.ApplyAuthoritative(seq2, snap))
	second := store.Snapshot()

	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, first.TotalItems, second.TotalItems)
	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
}

func TestStaleRefetchIsDiscarded(t *testing.T) {
	store := NewCartStore()

	older := store.BeginRefetch()
	newer := store.BeginRefetch()

	newSnap := BuildSnapshot(sampleItems())
	require.True(t, store.ApplyAuthoritative(newer, newSnap))

	oldSnap := BuildSnapshot(nil)
	assert.False(t, store.ApplyAuthoritative(older, oldSnap), "older response must be discarded")

	assert.Equal(t, 6, store.Snapshot().TotalItems)
}

func TestResetInvalidatesInflightRefetch(t *testing.T) {
	store := NewCartStore()
	seq := store.BeginRefetch()

	store.Reset()

	applied := store.ApplyAuthoritative(seq, BuildSnapshot(sampleItems()))
	assert.False(t, applied, "refetch issued before reset must not resurrect items")
	assert.Empty(t, store.Snapshot().Items)
	assert.Zero(t, store.Snapshot().TotalItems)
}

func TestSubscribersObserveFullyFormedSnapshots(t *testing.T) {
	store := NewCartStore()
	var seen []CartSnapshot
	cancel := store.Subscribe(func(s CartSnapshot) {
		seen = append(seen, s)
	})
	defer cancel()

	seq := store.BeginRefetch()
	store.ApplyAuthoritative(seq, BuildSnapshot(sampleItems()))

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[1].Loading)

	for _, snap := range seen {
		total := 0
		for _, item := range snap.Items {
			total += item.Quantity
		}
		if !snap.Loading || len(snap.Items) > 0 {
			assert.Equal(t, total, snap.TotalItems, "totals must match the item sequence they summarize")
		}
	}

	cancel()
	store.Patch(func(s *CartSnapshot) { s.TotalItems++ })
	assert.Len(t, seen, 2, "cancelled subscriber must not fire")
}

func TestFailRefetchKeepsLastKnownItems(t *testing.T) {
	store := NewCartStore()
	seq := store.BeginRefetch()
	require.True(t, store.ApplyAuthoritative(seq, BuildSnapshot(sampleItems())))

	failSeq := store.BeginRefetch()
	store.FailRefetch(failSeq, "remote store unavailable")

	snap := store.Snapshot()
	assert.Len(t, snap.Items, 2)
	assert.False(t, snap.Loading)
	assert.Equal(t, "remote store unavailable", snap.LastError)
}

func TestOrderBookPatchInPlace(t *testing.T) {
	book := NewOrderBook()
	book.Patch("o1", map[string]any{"status": "PENDING", "total": 42})
	book.Patch("o1", map[string]any{"status": "SHIPPED"})

	record, ok := book.Get("o1")
	require.True(t, ok)
	assert.Equal(t, "SHIPPED", record["status"])
	assert.Equal(t, 42, record["total"])
	assert.Equal(t, 1, book.Len())
}

func TestMessageLogUpsertReplacesByID(t *testing.T) {
	log := NewMessageLog()
	log.Upsert(ChatMessage{ID: "m1", Body: "hello"})
	log.Upsert(ChatMessage{ID: "m2", Body: "hi"})
	log.Upsert(ChatMessage{ID: "m1", Body: "hello (edited)"})

	msgs := log.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello (edited)", msgs[0].Body)
	assert.Equal(t, "m2", msgs[1].ID)
}
