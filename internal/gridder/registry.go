package gridder

import (
	"sort"
	"sync"

	"github.com/vk/skygrid/internal/imgerr"
)

// Factory builds a kernel or reports why it is unavailable.
type Factory func() (Kernel, error)

// Registry maps kernel names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// NewDefaultRegistry returns a registry holding the built-in kernels.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(DFTName, func() (Kernel, error) { return NewDFT(), nil })
	r.Register(FFTName, func() (Kernel, error) { return NewFFT(), nil })
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Lookup builds the kernel called name. Unknown names and failing factories
// yield an ErrKernelUnavailable error.
func (r *Registry) Lookup(name string) (Kernel, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, imgerr.KernelUnavailablef("gridder", "no kernel registered as %q (have %v)", name, r.Names())
	}
	k, err := f()
	if err != nil {
		return nil, imgerr.Wrap(imgerr.ErrKernelUnavailable, "gridder "+name, err)
	}
	return k, nil
}

// Names lists the registered kernels in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
