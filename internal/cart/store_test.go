package cart

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uchsash/medistore/pkg/kv"
)

func paracetamol() Item {
	return Item{ItemID: "A", DisplayName: "Paracetamol 500mg", UnitPrice: 2.5}
}

func TestAddMergesQuantities(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory())

	store.Add(ctx, paracetamol(), 2)
	store.Add(ctx, paracetamol(), 3)

	items := store.Items(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].ItemID)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddClampsToOne(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory())

	store.Add(ctx, paracetamol(), 0)
	assert.Equal(t, 1, store.Items(ctx)[0].Quantity)

	store.Add(ctx, paracetamol(), -10)
	assert.Equal(t, 1, store.Items(ctx)[0].Quantity)
}

func TestAddSaturatesLargeQuantities(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory())

	store.Add(ctx, paracetamol(), 5)
	store.Add(ctx, paracetamol(), math.MaxInt)
	assert.Equal(t, MaxQuantity, store.Items(ctx)[0].Quantity)

	store.Add(ctx, paracetamol(), 1)
	assert.Equal(t, MaxQuantity, store.Items(ctx)[0].Quantity)

	store.Add(ctx, Item{ItemID: "B", DisplayName: "Zinc"}, math.MaxInt)
	assert.Equal(t, MaxQuantity, store.Items(ctx)[1].Quantity)
}

func TestSetQuantityFloor(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory())
	store.Add(ctx, paracetamol(), 4)

	for _, q := range []float64{0, -5} {
		store.SetQuantity(ctx, "A", q)
		assert.Equal(t, 1, store.Items(ctx)[0].Quantity, "qty %v", q)
	}

	store.SetQuantity(ctx, "A", 3.9)
	assert.Equal(t, 3, store.Items(ctx)[0].Quantity)

	store.SetQuantity(ctx, "missing", 7)
	require.Len(t, store.Items(ctx), 1)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory())
	store.Add(ctx, paracetamol(), 1)

	before := store.Items(ctx)
	store.Remove(ctx, "X")
	assert.Equal(t, before, store.Items(ctx))

	store.Remove(ctx, "A")
	store.Remove(ctx, "A")
	assert.Empty(t, store.Items(ctx))
}

func TestCorruptStorageRecovers(t *testing.T) {
	ctx := context.Background()
	profile := kv.NewProfile()
	store := New(profile.Open())

	for _, raw := range []string{"{not an array}", `{"itemId":"A"}`, `"text"`, "null"} {
		profile.Raw(DefaultKey, raw)
		assert.Empty(t, store.Items(ctx), "raw %q", raw)
		assert.Equal(t, 0, store.Count(ctx))
	}

	profile.Raw(DefaultKey, "{not an array}")
	store.Add(ctx, paracetamol(), 1)

	raw, found, err := profile.Open().Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, found)
	var lines []Line
	require.NoError(t, json.Unmarshal([]byte(raw), &lines))
	require.Len(t, lines, 1)
}

func TestCountAndSubtotal(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory())
	store.Add(ctx, Item{ItemID: "A", UnitPrice: 0.1}, 2)
	store.Add(ctx, Item{ItemID: "B", UnitPrice: 0.2}, 3)

	assert.Equal(t, 5, store.Count(ctx))
	assert.Equal(t, "0.80", store.Subtotal(ctx).StringFixed(2))
}

func TestPersistedFormat(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	store := New(backend)
	image := "https://cdn.example/a.png"
	store.Add(ctx, Item{ItemID: "A", DisplayName: "Aspirin", UnitPrice: 3, ImageRef: &image}, 1)
	store.Add(ctx, Item{ItemID: "B", DisplayName: "Zinc", UnitPrice: 1.25}, 2)

	raw, _, err := backend.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"itemId":"A","displayName":"Aspirin","unitPrice":3,"imageRef":"https://cdn.example/a.png","quantity":1},
		{"itemId":"B","displayName":"Zinc","unitPrice":1.25,"quantity":2}
	]`, raw)
}

func TestNilBackendIsNoop(t *testing.T) {
	ctx := context.Background()
	store := New(nil)

	calls := 0
	store.Subscribe(func(Snapshot) { calls++ })

	store.Add(ctx, paracetamol(), 2)
	store.SetQuantity(ctx, "A", 3)
	store.Remove(ctx, "A")
	store.Clear(ctx)

	assert.Empty(t, store.Items(ctx))
	assert.Equal(t, 0, store.Count(ctx))
	assert.True(t, store.Subtotal(ctx).IsZero())
	assert.Equal(t, 0, calls)
	store.Close()
}

type failingBackend struct {
	kv.Store
}

func (failingBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (failingBackend) Set(context.Context, string, string) error {
	return errors.New("connection refused")
}

func (failingBackend) Watch(string, func(kv.Change)) func() { return func() {} }

func TestBackendErrorsAreAbsorbed(t *testing.T) {
	ctx := context.Background()
	store := New(failingBackend{})

	calls := 0
	store.Subscribe(func(Snapshot) { calls++ })

	store.Add(ctx, paracetamol(), 1)
	assert.Empty(t, store.Items(ctx))
	assert.Equal(t, 0, calls)
}

func TestSubscribersSeeLocalMutations(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory())

	var snaps []Snapshot
	unsubscribe := store.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	store.Add(ctx, paracetamol(), 2)
	store.Clear(ctx)
	require.Len(t, snaps, 2)
	assert.Equal(t, 2, snaps[0].Count)
	assert.Equal(t, 0, snaps[1].Count)

	unsubscribe()
	store.Add(ctx, paracetamol(), 1)
	assert.Len(t, snaps, 2)
}

func TestConcurrentMutationsReachSubscribersInOrder(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory())

	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu     sync.Mutex
		first  = true
		counts []int
	)
	store.Subscribe(func(s Snapshot) {
		mu.Lock()
		block := first
		first = false
		mu.Unlock()
		if block {
			close(entered)
			<-release
		}
		mu.Lock()
		counts = append(counts, s.Count)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Add(ctx, paracetamol(), 1)
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Add(ctx, paracetamol(), 1)
	}()
	require.Eventually(t, func() bool { return store.Count(ctx) == 2 }, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, counts)
	assert.Equal(t, store.Count(ctx), counts[len(counts)-1])
}

func TestOtherTabWritesNotifyOnlyForCartKey(t *testing.T) {
	ctx := context.Background()
	profile := kv.NewProfile()
	tabA := New(profile.Open())
	tabB := New(profile.Open())
	t.Cleanup(func() {
		tabA.Close()
		tabB.Close()
	})

	var seen []Snapshot
	tabB.Subscribe(func(s Snapshot) { seen = append(seen, s) })

	other := profile.Open()
	require.NoError(t, other.Set(ctx, "theme", "dark"))
	assert.Empty(t, seen)

	tabA.Add(ctx, paracetamol(), 3)
	require.Len(t, seen, 1)
	assert.Equal(t, 3, seen[0].Count)
	assert.Equal(t, 3, tabB.Count(ctx))
}

func TestClosedStoreStopsExternalNotifications(t *testing.T) {
	ctx := context.Background()
	profile := kv.NewProfile()
	tabA := New(profile.Open())
	tabB := New(profile.Open())

	calls := 0
	tabB.Subscribe(func(Snapshot) { calls++ })
	tabB.Close()

	tabA.Add(ctx, paracetamol(), 1)
	assert.Equal(t, 0, calls)
}

func TestRegistryNamespacesPerProfile(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(kv.NewMemory(), "", nil, nil)
	t.Cleanup(registry.Close)

	alice := registry.For("alice")
	assert.Same(t, alice, registry.For("alice"))
	assert.Equal(t, DefaultKey+":alice", alice.Key())
	assert.Equal(t, DefaultKey, registry.KeyFor(""))

	alice.Add(ctx, paracetamol(), 2)
	assert.Equal(t, 0, registry.For("bob").Count(ctx))
	assert.Equal(t, 2, registry.For("alice").Count(ctx))
}
