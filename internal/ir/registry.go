package ir

import "github.com/lavanderhoney/kaledioscope/internal/ast"

// Registry is the driver-owned mapping from function name to its most
// recent prototype. It stores the same *ast.Prototype the lowered
// Function or extern carries, and is consulted whenever a declaration
// must be re-materialised into a module created after the one the
// prototype first appeared in (see Lowerer.getFunction).
type Registry struct {
	protos map[string]*ast.Prototype
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{protos: make(map[string]*ast.Prototype)}
}

// Set records p as the most recent prototype for its name.
func (r *Registry) Set(p *ast.Prototype) {
	r.protos[p.Name] = p
}

// Get looks up the most recent prototype for name.
func (r *Registry) Get(name string) (*ast.Prototype, bool) {
	p, ok := r.protos[name]
	return p, ok
}
