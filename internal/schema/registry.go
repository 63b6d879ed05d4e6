package schema

// Registry resolves named type references by identity. Cyclic references are
// handled by registering a definition before its fields are built: a type
// that references itself (directly or through a container) finds the
// in-progress entry instead of recursing.
type Registry struct {
	defs     map[string]*TypeDefinition
	order    []string
	building map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		defs:     make(map[string]*TypeDefinition),
		building: make(map[string]bool),
	}
}

// Begin marks a type name as in progress so that references to it resolve by
// identity while its own fields are still being built.
func (reg *Registry) Begin(name string) {
	reg.building[name] = true
}

// Building reports whether the named type is currently being built.
func (reg *Registry) Building(name string) bool {
	return reg.building[name]
}

// Finish stores the completed definition and clears the in-progress mark.
func (reg *Registry) Finish(td *TypeDefinition) {
	delete(reg.building, td.Name)
	if _, seen := reg.defs[td.Name]; !seen {
		reg.order = append(reg.order, td.Name)
	}
	reg.defs[td.Name] = td
}

// Lookup returns the completed definition for name.
func (reg *Registry) Lookup(name string) (*TypeDefinition, bool) {
	td, ok := reg.defs[name]
	return td, ok
}

// Known reports whether name is either completed or in progress.
func (reg *Registry) Known(name string) bool {
	if _, ok := reg.defs[name]; ok {
		return true
	}
	return reg.building[name]
}

// Names returns registered names in completion order.
func (reg *Registry) Names() []string {
	out := make([]string, len(reg.order))
	copy(out, reg.order)
	return out
}
