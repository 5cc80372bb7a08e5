package toolchain

import (
	"fmt"
	"sort"
)

type Registry struct {
	toolchains map[string]Toolchain
}

func NewRegistry() *Registry {
	return &Registry{toolchains: map[string]Toolchain{}}
}

func (r *Registry) Register(t Toolchain) {
	r.toolchains[t.Name()] = t
}

func (r *Registry) Get(name string) (Toolchain, error) {
	t, ok := r.toolchains[name]
	if !ok {
		return nil, fmt.Errorf("toolchain not registered: %s", name)
	}
	return t, nil
}

// Names returns the registered toolchain names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.toolchains))
	for name := range r.toolchains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
