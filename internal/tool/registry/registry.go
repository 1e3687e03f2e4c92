// Package registry holds the process-wide set of tools available to every
// session. It is read-mostly: built-ins are registered at startup and
// external providers add or remove their tools when they connect.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Cyclone1070/kiro/internal/tool"
)

// Separator joins a provider name and its tool name.
const Separator = "/"

type entry struct {
	tool     tool.Tool
	provider string
}

// Registry is a name-keyed, ordered set of tools safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*entry
	order    []string
	revision uint64
}

// New creates a registry pre-populated with tools, failing on duplicates.
func New(tools ...tool.Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]*entry)}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. It fails with *DuplicateNameError if the name is
// taken; the existing registration is left untouched.
func (r *Registry) Register(t tool.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Declaration().Name
	if name == "" {
		return fmt.Errorf("register tool: empty name")
	}
	if _, ok := r.byName[name]; ok {
		return &DuplicateNameError{Name: name}
	}
	r.insert(name, &entry{tool: t})
	return nil
}

// RegisterDynamic adds tools discovered from an external provider under
// "provider/name". The batch is all-or-nothing: on a duplicate nothing is
// registered.
func (r *Registry) RegisterDynamic(provider string, tools []tool.Tool) error {
	if provider == "" || strings.Contains(provider, Separator) {
		return fmt.Errorf("register dynamic tools: invalid provider name %q", provider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	wrapped := make([]tool.Tool, 0, len(tools))
	seen := make(map[string]bool, len(tools))
	for _, t := range tools {
		ns := namespace(provider, t)
		name := ns.Declaration().Name
		if _, ok := r.byName[name]; ok || seen[name] {
			return &DuplicateNameError{Name: name}
		}
		seen[name] = true
		wrapped = append(wrapped, ns)
	}
	for _, ns := range wrapped {
		r.insert(ns.Declaration().Name, &entry{tool: ns, provider: provider})
	}
	return nil
}

// Unregister removes every tool registered by provider and returns how many
// were removed.
func (r *Registry) Unregister(provider string) int {
	if provider == "" {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.order[:0]
	removed := 0
	for _, name := range r.order {
		if r.byName[name].provider == provider {
			delete(r.byName, name)
			removed++
			continue
		}
		kept = append(kept, name)
	}
	r.order = kept
	if removed > 0 {
		r.revision++
	}
	return removed
}

// Lookup returns the tool registered under exactly name (case-sensitive).
func (r *Registry) Lookup(name string) (tool.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byName[name]
	if !ok {
		return nil, &UnknownToolError{Name: name, Available: append([]string(nil), r.order...)}
	}
	return e.tool, nil
}

// List returns tool declarations in registration order.
func (r *Registry) List() []tool.Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]tool.Declaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.byName[name].tool.Declaration())
	}
	return decls
}

// Revision changes whenever the set of tools changes.
func (r *Registry) Revision() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

func (r *Registry) insert(name string, e *entry) {
	r.byName[name] = e
	r.order = append(r.order, name)
	r.revision++
}

// namespaced exposes a provider tool under "provider/name".
type namespaced struct {
	inner tool.Tool
	decl  tool.Declaration
}

// namespacedMutating keeps the approval classification of the wrapped tool.
type namespacedMutating struct {
	*namespaced
	mut tool.Mutating
}

func namespace(provider string, t tool.Tool) tool.Tool {
	decl := t.Declaration()
	decl.Name = provider + Separator + decl.Name
	ns := &namespaced{inner: t, decl: decl}
	if mut, ok := t.(tool.Mutating); ok {
		return &namespacedMutating{namespaced: ns, mut: mut}
	}
	return ns
}

func (n *namespaced) Declaration() tool.Declaration { return n.decl }

func (n *namespaced) Execute(ctx context.Context, args map[string]any) tool.Outcome {
	return n.inner.Execute(ctx, args)
}

func (n *namespacedMutating) Plan(ctx context.Context, args map[string]any) (*tool.Change, error) {
	return n.mut.Plan(ctx, args)
}
