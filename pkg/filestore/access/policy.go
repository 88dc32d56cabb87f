// Package access implements the least-privilege policy model guarding the
// object store. Policies are {principal, actions, resource pattern}
// bindings evaluated with default-deny; the only grantable actions are
// List, Get, Put and Delete, with List bound at bucket scope and the
// object actions at object scope.
package access

import (
	"strings"
	"sync"
)

// Action is a store operation a policy can grant.
type Action string

const (
	ActionList   Action = "list"
	ActionGet    Action = "get"
	ActionPut    Action = "put"
	ActionDelete Action = "delete"
)

// Binding grants a set of actions on a resource pattern to whichever
// principal it is bound to. Patterns are either an exact resource name
// (bucket scope) or a prefix followed by "/*" (object scope).
type Binding struct {
	Actions         []Action
	ResourcePattern string
}

// PolicySet holds the role bindings for all principals. Evaluation is
// default-deny: an action succeeds only when some binding of the
// principal explicitly grants it on a matching resource.
type PolicySet struct {
	mu       sync.RWMutex
	bindings map[string][]Binding
}

func NewPolicySet() *PolicySet {
	return &PolicySet{
		bindings: make(map[string][]Binding),
	}
}

// BindRole attaches bindings to a principal, accumulating with any
// already bound.
func (p *PolicySet) BindRole(principal string, bindings ...Binding) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bindings[principal] = append(p.bindings[principal], bindings...)
}

// Allows reports whether the principal is granted the action on the
// resource. Unknown principals and unmatched resources are denied.
func (p *PolicySet) Allows(principal string, action Action, resource string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, b := range p.bindings[principal] {
		if !matchResource(b.ResourcePattern, resource) {
			continue
		}
		for _, a := range b.Actions {
			if a == action {
				return true
			}
		}
	}
	return false
}

// matchResource matches an exact resource name, or a "prefix/*" pattern
// against any resource under that prefix. A bare "*" is deliberately not
// supported: bucket-scope and object-scope grants are always distinct.
func matchResource(pattern, resource string) bool {
	if pattern == "" || pattern == "*" {
		return false
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(resource, prefix+"/")
	}
	return pattern == resource
}

// ReadWriteBindings returns the minimal bindings for a service backend
// that uploads, verifies and deletes objects: List at bucket scope,
// Get/Put/Delete at object scope.
func ReadWriteBindings(bucket string) []Binding {
	return []Binding{
		{Actions: []Action{ActionList}, ResourcePattern: bucket},
		{Actions: []Action{ActionGet, ActionPut, ActionDelete}, ResourcePattern: bucket + "/*"},
	}
}

// ReadOnlyBindings returns the bindings for the edge delivery layer's
// signed-origin credential: object reads only.
func ReadOnlyBindings(bucket string) []Binding {
	return []Binding{
		{Actions: []Action{ActionGet}, ResourcePattern: bucket + "/*"},
	}
}
