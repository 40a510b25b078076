// Package metamodel provides domain entities for the host class registry.
package metamodel

import "fmt"

// Stimulus is a named transition trigger between two lifecycle states.
// Internal stimuli are fired by the system rather than an operator and are
// hidden from rendered diagrams when the tenant configures it so.
type Stimulus struct {
	Name     string `json:"name"`
	From     string `json:"from"`
	To       string `json:"to"`
	Internal bool   `json:"internal"`
}

// Lifecycle is the state machine definition attached to a class: its states
// and the stimulus-labeled transitions between them.
type Lifecycle struct {
	ClassName    string     `json:"className"`
	InitialState string     `json:"initialState"`
	States       []string   `json:"states"`
	Stimuli      []Stimulus `json:"stimuli"`
}

// HasState reports whether the lifecycle declares the given state.
func (l *Lifecycle) HasState(state string) bool {
	for _, s := range l.States {
		if s == state {
			return true
		}
	}
	return false
}

// TransitionTable builds the current-state → reachable-states map used for
// transition validation.
func (l *Lifecycle) TransitionTable() map[string][]string {
	table := make(map[string][]string, len(l.States))
	for _, s := range l.States {
		table[s] = nil
	}
	for _, stim := range l.Stimuli {
		table[stim.From] = append(table[stim.From], stim.To)
	}
	return table
}

// VisibleStimuli returns the stimuli to render. When hideInternal is set,
// system-fired stimuli are filtered out; order is preserved.
func (l *Lifecycle) VisibleStimuli(hideInternal bool) []Stimulus {
	if !hideInternal {
		return l.Stimuli
	}
	visible := make([]Stimulus, 0, len(l.Stimuli))
	for _, stim := range l.Stimuli {
		if !stim.Internal {
			visible = append(visible, stim)
		}
	}
	return visible
}

// ValidateTransition checks whether transitioning from current to target is
// allowed by the transition table. It returns nil if the transition is valid,
// or a descriptive error otherwise.
func ValidateTransition(transitions map[string][]string, current, target string) error {
	allowed, ok := transitions[current]
	if !ok {
		return fmt.Errorf("unknown current state: %s", current)
	}
	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return fmt.Errorf("transition from %q to %q is not allowed", current, target)
}
