package metamodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documentLifecycle() *Lifecycle {
	return &Lifecycle{
		ClassName:    "document",
		InitialState: "draft",
		States:       []string{"draft", "review", "published", "archived"},
		Stimuli: []Stimulus{
			{Name: "submit", From: "draft", To: "review"},
			{Name: "approve", From: "review", To: "published"},
			{Name: "reject", From: "review", To: "draft"},
			{Name: "archive", From: "published", To: "archived"},
			{Name: "expire", From: "published", To: "archived", Internal: true},
		},
	}
}

func TestLifecycle_HasState(t *testing.T) {
	lc := documentLifecycle()
	assert.True(t, lc.HasState("draft"))
	assert.True(t, lc.HasState("archived"))
	assert.False(t, lc.HasState("deleted"))
}

func TestLifecycle_TransitionTable(t *testing.T) {
	table := documentLifecycle().TransitionTable()

	assert.ElementsMatch(t, []string{"review"}, table["draft"])
	assert.ElementsMatch(t, []string{"published", "draft"}, table["review"])
	assert.ElementsMatch(t, []string{"archived", "archived"}, table["published"])

	// Terminal states appear in the table with no targets.
	targets, ok := table["archived"]
	require.True(t, ok)
	assert.Empty(t, targets)
}

func TestValidateTransition(t *testing.T) {
	table := documentLifecycle().TransitionTable()

	assert.NoError(t, ValidateTransition(table, "draft", "review"))
	assert.NoError(t, ValidateTransition(table, "review", "draft"))

	err := ValidateTransition(table, "draft", "published")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")

	err = ValidateTransition(table, "deleted", "draft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown current state")
}

func TestLifecycle_VisibleStimuli(t *testing.T) {
	lc := documentLifecycle()

	all := lc.VisibleStimuli(false)
	assert.Len(t, all, 5)

	visible := lc.VisibleStimuli(true)
	require.Len(t, visible, 4)
	for _, stim := range visible {
		assert.False(t, stim.Internal)
	}
	// Order is preserved after filtering.
	assert.Equal(t, "submit", visible[0].Name)
	assert.Equal(t, "archive", visible[3].Name)
}
