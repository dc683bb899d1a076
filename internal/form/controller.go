package form

import (
	"maps"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/formstate/internal/events"
	"github.com/muurk/formstate/internal/logging"
	"github.com/muurk/formstate/internal/path"
)

// Config describes a form.
type Config struct {
	// Name identifies the form in logs. Optional.
	Name string
	// InitialValues seeds the value tree. Its top-level keys fix the set of
	// touched and error flags. The map is cloned, never aliased.
	InitialValues Values
	// Validations maps top-level keys to predicates. Optional.
	Validations Validations
	// InitialStep is the starting step. Defaults to 0.
	InitialStep int
	// ValidateOnInit runs every predicate once at construction so error
	// flags reflect the initial values. Off by default: flags start false.
	ValidateOnInit bool
	// Source delivers focus-loss and change notifications. Optional.
	Source events.Source
}

// Controller tracks values, touched flags, error flags and the current step
// of one form. Every mutating call applies its change and revalidates before
// returning. A Controller is safe for concurrent use.
type Controller struct {
	id          string
	name        string
	validations Validations

	mu       sync.Mutex
	state    State
	sub      events.Subscription
	closed   bool
	watchers map[int]*watcher
	nextWID  int
}

// New creates a controller and, when cfg.Source is set, subscribes it to
// field events. Call Close to release the subscription.
func New(cfg Config) *Controller {
	c := &Controller{
		id:          uuid.New().String(),
		name:        cfg.Name,
		validations: maps.Clone(cfg.Validations),
		state:       newState(cfg.InitialValues, cfg.InitialStep),
		watchers:    make(map[int]*watcher),
	}
	if c.validations == nil {
		c.validations = Validations{}
	}
	if c.name == "" {
		c.name = c.id
	}

	if cfg.ValidateOnInit {
		c.state = revalidate(c.state, c.validations)
		c.state.HasFormFieldError = anyTrue(c.state.Errors)
	}

	if cfg.Source != nil {
		c.sub = cfg.Source.Subscribe(c.handleEvent,
			events.KindFocusOut, events.KindInput, events.KindChange, events.KindClick)
	}

	logging.Info("Form controller created",
		zap.String("form", c.name),
		zap.String("controller_id", c.id),
		zap.Int("fields", len(c.state.Values)),
		zap.Int("validations", len(c.validations)),
		zap.Int("step", c.state.Step),
		zap.Bool("subscribed", c.sub != nil),
	)

	return c
}

// ID returns the controller's unique identifier.
func (c *Controller) ID() string { return c.id }

// Name returns the form name, or the ID when none was configured.
func (c *Controller) Name() string { return c.name }

// SetValue writes value at key (a dotted or indexed path), creating
// intermediate containers, then revalidates.
func (c *Controller) SetValue(key string, value any) {
	c.dispatch(setValue{k: key, v: value})
}

// NextStep advances the current step by one. There is no upper bound.
func (c *Controller) NextStep() {
	c.dispatch(nextStep{})
}

// SetStep sets the current step verbatim. There is no bounds check.
func (c *Controller) SetStep(n int) {
	c.dispatch(setStep{n: n})
}

// Touch marks the top-level field owning key as touched. Event sources call
// this through their focus-loss notifications; views may call it directly.
func (c *Controller) Touch(key string) {
	c.dispatch(touch{k: key})
}

// IsFieldValid reports whether key has no error. Unknown keys are valid.
func (c *Controller) IsFieldValid(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsFieldValid(key)
}

// FieldsValid reports whether every listed key is valid.
func (c *Controller) FieldsValid(keys ...string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if !c.state.IsFieldValid(path.Top(k)) {
			return false
		}
	}
	return true
}

// IsFieldTouched reports whether key has been touched. Unknown keys are not.
func (c *Controller) IsFieldTouched(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsFieldTouched(key)
}

// HasFormFieldError reports whether any top-level field has an error.
func (c *Controller) HasFormFieldError() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.HasFormFieldError
}

// CurrentStep returns the current step.
func (c *Controller) CurrentStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Step
}

// Values returns a deep copy of the current values.
func (c *Controller) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return path.CloneMap(c.state.Values)
}

// Value returns a copy of the value at key.
func (c *Controller) Value(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := path.Get(c.state.Values, key)
	return path.Clone(v), ok
}

// Errors returns a copy of the error flags.
func (c *Controller) Errors() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.state.Errors)
}

// Touched returns a copy of the touched flags.
func (c *Controller) Touched() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.state.Touched)
}

// Fields returns the top-level keys in sorted order.
func (c *Controller) Fields() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.state.Touched))
	for k := range c.state.Touched {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the whole state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Watch registers fn to receive a snapshot after every change. fn runs on
// the goroutine that made the change, after the controller's lock is
// released, so it may call back into the controller. Snapshots reach fn in
// revision order: one that is older than a snapshot fn already received is
// skipped rather than delivered late. The returned function removes the
// watcher.
func (c *Controller) Watch(fn func(State)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextWID
	c.nextWID++
	c.watchers[id] = &watcher{fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, id)
			c.mu.Unlock()
		})
	}
}

// Close releases the event subscription. Further events are not received;
// direct calls keep working. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}

	logging.Info("Form controller closed",
		zap.String("form", c.name),
		zap.String("controller_id", c.id),
	)
}

func (c *Controller) handleEvent(e events.Event) {
	if !e.Valid() {
		return
	}
	switch {
	case e.Kind == events.KindFocusOut:
		c.dispatch(touch{k: e.Name})
	case events.IsValueEdit(e):
		c.dispatch(externalChange{k: e.Name, v: e.Value})
	}
}

func (c *Controller) dispatch(m mutation) {
	snap, eff, watchers := c.commit(m)
	if eff == effectNone {
		return
	}

	logging.LogMutation(c.name, m.op(), m.key(), snap.Step)
	if eff == effectValues && logging.GetLogger().Core().Enabled(zap.DebugLevel) {
		for key := range c.validations {
			if _, ok := snap.Errors[key]; ok {
				logging.LogValidation(c.name, key, !snap.Errors[key])
			}
		}
	}

	for _, w := range watchers {
		w.deliver(snap)
	}
}

// commit applies m under the lock and stamps the next revision. A predicate
// that panics leaves the state unchanged and the lock released.
func (c *Controller) commit(m mutation) (State, effect, []*watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, eff := apply(c.state, m, c.validations)
	if eff == effectNone {
		return State{}, eff, nil
	}
	next.Revision = c.state.Revision + 1
	c.state = next
	return next.Clone(), eff, c.watcherList()
}

// watcher receives snapshots in revision order. A snapshot older than one
// already delivered is skipped; this happens when a watcher changes the
// controller from inside its callback, or when two goroutines race.
type watcher struct {
	fn   func(State)
	last atomic.Uint64
}

func (w *watcher) deliver(s State) {
	for {
		last := w.last.Load()
		if s.Revision <= last {
			return
		}
		if w.last.CompareAndSwap(last, s.Revision) {
			w.fn(s.Clone())
			return
		}
	}
}

// watcherList returns watchers in registration order. Callers hold c.mu.
func (c *Controller) watcherList() []*watcher {
	if len(c.watchers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(c.watchers))
	for id := range c.watchers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*watcher, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.watchers[id])
	}
	return out
}
