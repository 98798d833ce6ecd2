package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrDuplicateService indicates the name is already taken.
	ErrDuplicateService = errors.New("service already registered")
	// ErrRegistryFrozen is returned by Register after Freeze.
	ErrRegistryFrozen = errors.New("service registry is frozen")
)

// Registry maps route names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	sources  map[string]string
	frozen   bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		sources:  make(map[string]string),
	}
}

// Register 以名称登记处理器，source 仅用于诊断输出（builtin / 服务文件路径）。
func (r *Registry) Register(name, source string, handler Handler) error {
	name = NormalizeName(name)
	if name == "" {
		return errors.New("service name required")
	}
	if handler == nil {
		return fmt.Errorf("service %s: handler required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateService, name)
	}
	r.handlers[name] = handler
	r.sources[name] = source
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Lookup returns the handler registered for name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	if r == nil || name == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[name]
	return handler, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sources returns name → source for diagnostics.
func (r *Registry) Sources() map[string]string {
	out := make(map[string]string)
	if r == nil {
		return out
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, source := range r.sources {
		out[name] = source
	}
	return out
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// NormalizeName trims whitespace and leading separators so "/echo" and
// "echo" register the same route.
func NormalizeName(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), "/")
}
