// Package registry holds the name-to-command mapping used for dispatch.
//
// A Registry is built once by a Builder and never mutated afterwards, so it
// can be read from any goroutine without locking. Reloading produces a new
// Registry rather than editing the old one.
package registry

import (
	"fmt"

	"github.com/soyeahso/gacc/pkg/command"
)

// Descriptor is a registered, invocable command.
type Descriptor struct {
	Name    string
	Usage   string
	Module  string // path of the module that provided it, "builtin" for host commands
	Handler command.Handler
}

// Registry is an immutable name → Descriptor map with insertion order.
type Registry struct {
	byName map[string]Descriptor
	order  []string
}

// Empty returns a registry with no commands.
func Empty() *Registry {
	return &Registry{byName: map[string]Descriptor{}}
}

// Lookup returns the descriptor registered under name. Matching is exact
// and case-sensitive.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	d, ok := r.byName[name]
	return d, ok
}

// Names returns command names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	if r == nil {
		return nil
	}
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byName)
}

// Policy decides what happens when a name is registered twice.
type Policy int

const (
	// Overwrite replaces the earlier registration (last loaded wins).
	Overwrite Policy = iota
	// Reject keeps the earlier registration and reports a CollisionError.
	Reject
)

// ParsePolicy maps a config value to a Policy. Unknown values fall back to
// Overwrite.
func ParsePolicy(s string) Policy {
	if s == "reject" {
		return Reject
	}
	return Overwrite
}

func (p Policy) String() string {
	if p == Reject {
		return "reject"
	}
	return "overwrite"
}

// CollisionError reports a name registered by more than one module.
type CollisionError struct {
	Name     string
	Existing string // module that keeps (Reject) or loses (Overwrite) the name
	Incoming string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("command %q from %s collides with %s", e.Name, e.Incoming, e.Existing)
}

// Builder accumulates descriptors during a load pass.
type Builder struct {
	policy Policy
	byName map[string]Descriptor
	order  []string
	built  bool
}

// NewBuilder creates a builder using the given collision policy.
func NewBuilder(policy Policy) *Builder {
	return &Builder{
		policy: policy,
		byName: make(map[string]Descriptor),
	}
}

// Add inserts d. Under Overwrite a duplicate replaces the earlier entry in
// place (its position in Names is kept) and a non-nil *CollisionError is
// returned for diagnostics only. Under Reject the duplicate is dropped and
// the *CollisionError means d was not added.
func (b *Builder) Add(d Descriptor) error {
	if b.built {
		panic("registry: Add after Build")
	}
	prev, exists := b.byName[d.Name]
	if !exists {
		b.byName[d.Name] = d
		b.order = append(b.order, d.Name)
		return nil
	}

	collision := &CollisionError{Name: d.Name, Existing: prev.Module, Incoming: d.Module}
	if b.policy == Reject {
		return collision
	}
	b.byName[d.Name] = d
	return collision
}

// Policy returns the builder's collision policy.
func (b *Builder) Policy() Policy { return b.policy }

// Len returns the number of distinct names added so far.
func (b *Builder) Len() int { return len(b.byName) }

// Build freezes the builder into a Registry. The builder must not be used
// afterwards.
func (b *Builder) Build() *Registry {
	b.built = true
	return &Registry{byName: b.byName, order: b.order}
}
