package policy

import (
	"sort"
	"sync"
)

// Registry looks up policies by case-normalized sheet name.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

// NewRegistry returns a registry holding the given policies. Later entries
// replace earlier ones with the same key.
func NewRegistry(policies ...Policy) *Registry {
	r := &Registry{policies: make(map[string]Policy, len(policies))}
	for _, p := range policies {
		r.Register(p)
	}
	return r
}

// NewBuiltinRegistry returns a registry with the Builtin policies.
func NewBuiltinRegistry() *Registry {
	return NewRegistry(Builtin()...)
}

func (r *Registry) Register(p Policy) {
	if p.Sanitizer == "" {
		p.Sanitizer = SanitizeIdentity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[Key(p.Name)] = p
}

// For returns the policy for a sheet. Unknown sheets get Default.
func (r *Registry) For(sheetName string) Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.policies[Key(sheetName)]; ok {
		return p
	}
	return Default(sheetName)
}

// Has reports whether a sheet has a registered policy.
func (r *Registry) Has(sheetName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.policies[Key(sheetName)]
	return ok
}

// All returns every registered policy sorted by key.
func (r *Registry) All() []Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Policy, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return Key(out[i].Name) < Key(out[j].Name)
	})
	return out
}
