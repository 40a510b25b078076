// Package widgets provides domain entities for lifecycle widget state management.
package widgets

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State represents the runtime state of a widget instance.
type State string

const (
	StateCollapsed State = "collapsed"
	StateOpening   State = "opening"
	StateOpen      State = "open"
	StateClosed    State = "closed"
	StateDestroyed State = "destroyed"
)

// ErrDestroyed is returned when an interaction reaches an instance after
// Destroy. Destroyed instances must never be reused.
var ErrDestroyed = errors.New("widget instance is destroyed")

// transitions is the instance state machine's transition table. Show is only
// reachable after Initialize because an Instance does not exist before it.
var transitions = map[State][]State{
	StateCollapsed: {StateOpening, StateDestroyed},
	StateOpening:   {StateOpen, StateDestroyed},
	StateOpen:      {StateClosed, StateDestroyed},
	StateClosed:    {StateOpening, StateDestroyed},
	StateDestroyed: {},
}

// CanTransition reports whether the instance state machine allows moving
// from one state to another.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ContentResolver supplies the modal content for an instance whose
// configuration carried no preloaded markup.
type ContentResolver func() (string, error)

// RefreshHook runs after options change. The base variant has nothing to
// refresh; variant-specific chrome reacts here.
type RefreshHook func(*Instance)

// ConfigPatch carries the option fields Reconfigure may change. Identity
// fields are absent on purpose: rebinding requires a new instance.
type ConfigPatch struct {
	ShowButtonCSSClasses *[]string   `json:"show_button_css_classes,omitempty"`
	Dict                 *Dictionary `json:"dict,omitempty"`
	PreloadedContent     *string     `json:"preloaded_content,omitempty"`
	TooltipDelayMS       *int        `json:"tooltip_delay_ms,omitempty"`
}

// Instance is one server-resident client widget: exactly one
// ObjectLifecycleContext and one WidgetConfig for its lifetime, driven by
// show/close/destroy/reconfigure events from the browser.
type Instance struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"sessionId"`
	Context   ObjectLifecycleContext `json:"context"`
	Variant   VariantID              `json:"variant"`
	Params    VariantParams          `json:"params"`
	CreatedAt time.Time              `json:"createdAt"`

	// bindingKey is derived from identity fields at construction and never
	// changes; readers do not need the lock.
	bindingKey string

	mu           sync.Mutex
	config       WidgetConfig
	state        State
	modalBuilt   bool
	content      string
	contentErr   error
	refresh      RefreshHook
	lastActivity time.Time
}

// NewInstance creates a widget instance in the collapsed state. This is the
// Initialize step: the caller has already rendered the marker class and show
// button for the bound element.
func NewInstance(id, sessionID string, ctx ObjectLifecycleContext, config WidgetConfig, variant VariantID) *Instance {
	now := time.Now()
	return &Instance{
		ID:           id,
		SessionID:    sessionID,
		Context:      ctx,
		Variant:      variant,
		Params:       ParamsFor(variant),
		CreatedAt:    now,
		bindingKey:   sessionID + ":" + ctx.Key(),
		config:       config,
		state:        StateCollapsed,
		lastActivity: now,
	}
}

// BindingKey identifies the bound element under the owning session. It
// depends only on identity fields fixed at construction, so stores may read
// it concurrently with state updates.
func (i *Instance) BindingKey() string {
	return i.bindingKey
}

// State returns the current state of the instance.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Config returns a copy of the instance's widget configuration.
func (i *Instance) Config() WidgetConfig {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.config
}

// LastActivity returns the time of the last interaction, used for TTL eviction.
func (i *Instance) LastActivity() time.Time {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastActivity
}

// SetRefreshHook installs the variant refresh hook run after option changes.
func (i *Instance) SetRefreshHook(hook RefreshHook) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.refresh = hook
}

// Open moves the instance to the open state. Opening an already-open
// instance is a no-op; rapid repeated clicks never construct a second modal.
// The modal content is populated exactly once: preloaded content wins, the
// resolver runs only on a cold first open, and a previous resolution failure
// is retried on the next open instead of leaving the modal blank.
func (i *Instance) Open(resolve ContentResolver) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.state {
	case StateDestroyed:
		return ErrDestroyed
	case StateOpen, StateOpening:
		i.lastActivity = time.Now()
		return nil
	}

	if !CanTransition(i.state, StateOpening) {
		return fmt.Errorf("cannot open widget from state %q", i.state)
	}
	i.state = StateOpening

	if !i.modalBuilt || i.contentErr != nil {
		if err := i.populateModal(resolve); err != nil {
			// The modal still opens; it shows the error fragment until a
			// reopen succeeds.
			i.contentErr = err
		}
	}

	i.state = StateOpen
	i.lastActivity = time.Now()
	return nil
}

// populateModal fills the modal content. Called with the instance lock held.
func (i *Instance) populateModal(resolve ContentResolver) error {
	i.modalBuilt = true

	if i.config.PreloadedContent != "" {
		i.content = i.config.PreloadedContent
		i.contentErr = nil
		return nil
	}

	if resolve == nil {
		return fmt.Errorf("no preloaded content and no resolver for widget %s", i.ID)
	}

	content, err := resolve()
	if err != nil {
		return fmt.Errorf("resolving widget content: %w", err)
	}

	i.content = content
	i.contentErr = nil
	return nil
}

// Content returns the resolved modal content and any resolution error.
func (i *Instance) Content() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.content, i.contentErr
}

// ModalBuilt reports whether the modal has been constructed.
func (i *Instance) ModalBuilt() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.modalBuilt
}

// Close hides the modal. Content and modal structure are retained for an
// instant reopen. Closing a never-opened or already-closed widget is a no-op.
func (i *Instance) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.state {
	case StateDestroyed:
		return ErrDestroyed
	case StateOpen:
		i.state = StateClosed
	}

	i.lastActivity = time.Now()
	return nil
}

// Destroy tears the instance down. Safe to call from any state, including
// after a partially failed initialize, and idempotent.
func (i *Instance) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateDestroyed {
		return
	}

	i.state = StateDestroyed
	i.content = ""
	i.contentErr = nil
	i.modalBuilt = false
	i.lastActivity = time.Now()
}

// AdvanceState records that the bound object moved to a new lifecycle state.
// Cached modal content is dropped so the next open renders the diagram with
// the new current-state highlight. A no-op on destroyed instances.
func (i *Instance) AdvanceState(newState string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateDestroyed {
		return
	}

	i.Context.CurrentState = newState
	i.config.ObjectState = newState
	i.content = ""
	i.contentErr = nil
	i.modalBuilt = false
}

// SetOptions merges an option patch into the configuration and re-runs the
// refresh step. The base variant refresh is a no-op hook.
func (i *Instance) SetOptions(patch ConfigPatch) error {
	i.mu.Lock()

	if i.state == StateDestroyed {
		i.mu.Unlock()
		return ErrDestroyed
	}

	if patch.ShowButtonCSSClasses != nil {
		i.config.ShowButtonCSSClasses = *patch.ShowButtonCSSClasses
	}
	if patch.Dict != nil {
		i.config.Dict = *patch.Dict
	}
	if patch.PreloadedContent != nil {
		i.config.PreloadedContent = *patch.PreloadedContent
	}
	if patch.TooltipDelayMS != nil {
		i.config.TooltipDelayMS = *patch.TooltipDelayMS
	}
	i.lastActivity = time.Now()

	hook := i.refresh
	i.mu.Unlock()

	if hook != nil {
		hook(i)
	}
	return nil
}
