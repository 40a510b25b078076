package stores

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
)

func storeInstance(id, objectID string) *widgets.Instance {
	ctx := widgets.ObjectLifecycleContext{
		ObjectClass:        "document",
		ObjectID:           objectID,
		StateAttributeCode: "status",
		CurrentState:       "draft",
	}
	return widgets.NewInstance(id, "sess-1", ctx, widgets.WidgetConfig{
		ObjectClass: "document",
		ObjectID:    objectID,
		ObjectState: "draft",
	}, widgets.VariantBackoffice)
}

func TestWidgetsStore_BindingRoundTrip(t *testing.T) {
	ws := NewWidgetsStore(nil)
	inst := storeInstance("w-1", "doc-1")

	ws.SetWidget("test", inst)

	got, found := ws.GetWidgetByBinding("test", "sess-1", inst.Context)
	require.True(t, found)
	assert.Equal(t, "w-1", got.ID)

	ws.RemoveWidget("test", "w-1")
	_, found = ws.GetWidgetByBinding("test", "sess-1", inst.Context)
	assert.False(t, found)
}

func TestWidgetsStore_BindingSurvivesStateAdvance(t *testing.T) {
	ws := NewWidgetsStore(nil)
	inst := storeInstance("w-1", "doc-1")
	ws.SetWidget("test", inst)

	// The binding key is identity-only; moving the bound object to a new
	// lifecycle state must not orphan the index entry.
	inst.AdvanceState("review")

	got, found := ws.GetWidgetByBinding("test", "sess-1", inst.Context)
	require.True(t, found)
	assert.Equal(t, "w-1", got.ID)

	ws.RemoveWidget("test", "w-1")
	_, found = ws.GetWidget("test", "w-1")
	assert.False(t, found)
}

func TestWidgetsStore_ConcurrentStateAdvanceAndIndexing(t *testing.T) {
	ws := NewWidgetsStore(nil)
	ws.InitializeTenant("test")

	inst := storeInstance("w-0", "doc-0")
	ws.SetWidget("test", inst)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for n := 0; n < 500; n++ {
			inst.AdvanceState(fmt.Sprintf("state-%d", n))
		}
	}()

	go func() {
		defer wg.Done()
		for n := 1; n <= 500; n++ {
			other := storeInstance(fmt.Sprintf("w-%d", n), fmt.Sprintf("doc-%d", n))
			ws.SetWidget("test", other)
			ws.RemoveWidget("test", other.ID)
			ws.SetWidget("test", inst)
		}
	}()

	wg.Wait()

	got, found := ws.GetWidget("test", "w-0")
	require.True(t, found)
	assert.Equal(t, "w-0", got.ID)
}

func TestWidgetsStore_EvictStale(t *testing.T) {
	ws := NewWidgetsStore(nil)
	stale := storeInstance("w-old", "doc-old")
	fresh := storeInstance("w-new", "doc-new")
	ws.SetWidget("test", stale)
	time.Sleep(10 * time.Millisecond)
	ws.SetWidget("test", fresh)

	evicted := ws.EvictStale("test", 5*time.Millisecond)
	assert.Equal(t, 1, evicted)

	_, found := ws.GetWidget("test", "w-old")
	assert.False(t, found)
	_, found = ws.GetWidget("test", "w-new")
	assert.True(t, found)
	assert.Equal(t, widgets.StateDestroyed, stale.State())
}
