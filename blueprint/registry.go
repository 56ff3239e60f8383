package blueprint

import (
	"fmt"
	"sync"

	"github.com/dmitrymomot/fsmkit"
)

// Registry maps the names used in blueprint documents to the guard, update,
// and action functions a compiled machine will call. Guards, updates, and
// actions live in separate namespaces, so a guard and an update may share a
// name. A Registry is safe for concurrent use; typically it is populated
// once at startup and read by every Compile afterwards.
type Registry struct {
	mu      sync.RWMutex
	guards  map[string]fsmkit.Guard
	updates map[string]fsmkit.ContextUpdate
	actions map[string]fsmkit.ActionFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		guards:  make(map[string]fsmkit.Guard),
		updates: make(map[string]fsmkit.ContextUpdate),
		actions: make(map[string]fsmkit.ActionFunc),
	}
}

// RegisterGuard binds a guard function to a name. Registering an empty name
// or nil function fails with ErrInvalidRegistration; registering a name
// twice fails with ErrDuplicateName.
func (r *Registry) RegisterGuard(name string, guard fsmkit.Guard) error {
	if name == "" || guard == nil {
		return fmt.Errorf("%w: guard %q", ErrInvalidRegistration, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.guards[name]; exists {
		return fmt.Errorf("%w: guard %q", ErrDuplicateName, name)
	}
	r.guards[name] = guard
	return nil
}

// RegisterUpdate binds a context update function to a name.
func (r *Registry) RegisterUpdate(name string, update fsmkit.ContextUpdate) error {
	if name == "" || update == nil {
		return fmt.Errorf("%w: update %q", ErrInvalidRegistration, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.updates[name]; exists {
		return fmt.Errorf("%w: update %q", ErrDuplicateName, name)
	}
	r.updates[name] = update
	return nil
}

// RegisterAction binds an entry/exit action function to a name.
func (r *Registry) RegisterAction(name string, action fsmkit.ActionFunc) error {
	if name == "" || action == nil {
		return fmt.Errorf("%w: action %q", ErrInvalidRegistration, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("%w: action %q", ErrDuplicateName, name)
	}
	r.actions[name] = action
	return nil
}

// MustRegisterGuard is like RegisterGuard but panics on error. Intended for
// startup wiring where a registration failure is a programming error.
func (r *Registry) MustRegisterGuard(name string, guard fsmkit.Guard) {
	if err := r.RegisterGuard(name, guard); err != nil {
		panic(err)
	}
}

// MustRegisterUpdate is like RegisterUpdate but panics on error.
func (r *Registry) MustRegisterUpdate(name string, update fsmkit.ContextUpdate) {
	if err := r.RegisterUpdate(name, update); err != nil {
		panic(err)
	}
}

// MustRegisterAction is like RegisterAction but panics on error.
func (r *Registry) MustRegisterAction(name string, action fsmkit.ActionFunc) {
	if err := r.RegisterAction(name, action); err != nil {
		panic(err)
	}
}

func (r *Registry) guard(name string) (fsmkit.Guard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	guard, ok := r.guards[name]
	return guard, ok
}

func (r *Registry) update(name string) (fsmkit.ContextUpdate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	update, ok := r.updates[name]
	return update, ok
}

func (r *Registry) action(name string) (fsmkit.ActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, ok := r.actions[name]
	return action, ok
}
