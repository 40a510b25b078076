package widgets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() ObjectLifecycleContext {
	return ObjectLifecycleContext{
		ObjectClass:        "document",
		ObjectID:           "doc-1",
		StateAttributeCode: "status",
		CurrentState:       "draft",
	}
}

func newTestInstance(preloaded string) *Instance {
	return NewInstance("w-1", "sess-1", testContext(), WidgetConfig{
		ObjectClass:      "document",
		ObjectID:         "doc-1",
		ObjectState:      "draft",
		PreloadedContent: preloaded,
	}, VariantBackoffice)
}

func TestNewInstance_StartsCollapsed(t *testing.T) {
	inst := newTestInstance("")
	assert.Equal(t, StateCollapsed, inst.State())
	assert.False(t, inst.ModalBuilt())
}

func TestOpen_BuildsModalOnce(t *testing.T) {
	inst := newTestInstance("")

	calls := 0
	resolve := func() (string, error) {
		calls++
		return "<ol>diagram</ol>", nil
	}

	require.NoError(t, inst.Open(resolve))
	assert.Equal(t, StateOpen, inst.State())
	assert.True(t, inst.ModalBuilt())

	content, err := inst.Content()
	require.NoError(t, err)
	assert.Equal(t, "<ol>diagram</ol>", content)

	// Close and reopen: the modal is retained, the resolver does not run again.
	require.NoError(t, inst.Close())
	require.NoError(t, inst.Open(resolve))
	assert.Equal(t, 1, calls)
}

func TestOpen_RepeatedOpenIsNoOp(t *testing.T) {
	inst := newTestInstance("")

	calls := 0
	resolve := func() (string, error) {
		calls++
		return "content", nil
	}

	require.NoError(t, inst.Open(resolve))
	require.NoError(t, inst.Open(resolve))
	require.NoError(t, inst.Open(resolve))

	assert.Equal(t, 1, calls)
	assert.Equal(t, StateOpen, inst.State())
}

func TestOpen_PreloadedContentWins(t *testing.T) {
	inst := newTestInstance("<p>preloaded</p>")

	resolve := func() (string, error) {
		t.Fatal("resolver must not run when content is preloaded")
		return "", nil
	}

	require.NoError(t, inst.Open(resolve))
	content, err := inst.Content()
	require.NoError(t, err)
	assert.Equal(t, "<p>preloaded</p>", content)
}

func TestOpen_ResolverErrorRetriedOnReopen(t *testing.T) {
	inst := newTestInstance("")

	calls := 0
	resolve := func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("upstream down")
		}
		return "recovered", nil
	}

	// First open still opens; the content error is recorded.
	require.NoError(t, inst.Open(resolve))
	assert.Equal(t, StateOpen, inst.State())
	_, err := inst.Content()
	assert.Error(t, err)

	// Reopen retries resolution instead of keeping the stale failure.
	require.NoError(t, inst.Close())
	require.NoError(t, inst.Open(resolve))

	content, err := inst.Content()
	require.NoError(t, err)
	assert.Equal(t, "recovered", content)
	assert.Equal(t, 2, calls)
}

func TestOpen_NoContentAndNoResolver(t *testing.T) {
	inst := newTestInstance("")

	require.NoError(t, inst.Open(nil))
	assert.Equal(t, StateOpen, inst.State())
	_, err := inst.Content()
	assert.Error(t, err)
}

func TestClose_NeverOpenedIsNoOp(t *testing.T) {
	inst := newTestInstance("")
	require.NoError(t, inst.Close())
	assert.Equal(t, StateCollapsed, inst.State())
}

func TestDestroy_Idempotent(t *testing.T) {
	inst := newTestInstance("content")
	require.NoError(t, inst.Open(nil))

	inst.Destroy()
	assert.Equal(t, StateDestroyed, inst.State())

	inst.Destroy()
	assert.Equal(t, StateDestroyed, inst.State())
}

func TestDestroy_BlocksFurtherInteraction(t *testing.T) {
	inst := newTestInstance("content")
	inst.Destroy()

	assert.ErrorIs(t, inst.Open(nil), ErrDestroyed)
	assert.ErrorIs(t, inst.Close(), ErrDestroyed)
	assert.ErrorIs(t, inst.SetOptions(ConfigPatch{}), ErrDestroyed)
}

func TestAdvanceState_DropsCachedContent(t *testing.T) {
	inst := newTestInstance("")

	states := []string{"draft", "review"}
	calls := 0
	resolve := func() (string, error) {
		content := "diagram for " + states[calls]
		calls++
		return content, nil
	}

	require.NoError(t, inst.Open(resolve))
	require.NoError(t, inst.Close())

	inst.AdvanceState("review")
	assert.False(t, inst.ModalBuilt())
	assert.Equal(t, "review", inst.Context.CurrentState)
	assert.Equal(t, "review", inst.Config().ObjectState)

	require.NoError(t, inst.Open(resolve))
	content, err := inst.Content()
	require.NoError(t, err)
	assert.Equal(t, "diagram for review", content)
}

func TestSetOptions_MergesPatch(t *testing.T) {
	inst := newTestInstance("")

	classes := []string{"btn", "btn-sm"}
	delay := 750
	require.NoError(t, inst.SetOptions(ConfigPatch{
		ShowButtonCSSClasses: &classes,
		TooltipDelayMS:       &delay,
	}))

	cfg := inst.Config()
	assert.Equal(t, classes, cfg.ShowButtonCSSClasses)
	assert.Equal(t, 750, cfg.TooltipDelayMS)
	// Untouched fields survive the patch.
	assert.Equal(t, "document", cfg.ObjectClass)
}

func TestSetOptions_RunsRefreshHook(t *testing.T) {
	inst := newTestInstance("")

	refreshed := false
	inst.SetRefreshHook(func(i *Instance) {
		refreshed = true
		assert.Equal(t, inst.ID, i.ID)
	})

	require.NoError(t, inst.SetOptions(ConfigPatch{}))
	assert.True(t, refreshed)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to State
		ok       bool
	}{
		{StateCollapsed, StateOpening, true},
		{StateOpening, StateOpen, true},
		{StateOpen, StateClosed, true},
		{StateClosed, StateOpening, true},
		{StateCollapsed, StateOpen, false},
		{StateOpen, StateOpening, false},
		{StateDestroyed, StateOpening, false},
		{StateClosed, StateDestroyed, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
