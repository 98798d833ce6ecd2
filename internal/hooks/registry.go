package hooks

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/devweb/devweb/internal/reply"
)

var (
	// ErrDuplicateHook indicates a key already has a callback for the stage.
	ErrDuplicateHook = errors.New("hook already registered")
	// ErrRegistryFrozen is returned by Register after Freeze.
	ErrRegistryFrozen = errors.New("hook registry is frozen")
)

type entry struct {
	key string
	fn  Func
}

// Registry 保存各阶段的回调，按注册顺序执行；启动完成后 Freeze，之后只读。
type Registry struct {
	mu     sync.RWMutex
	stages map[Stage][]entry
	frozen bool
	logger *logrus.Logger
}

// NewRegistry 创建空的注册表，logger 可为 nil。
func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{stages: make(map[Stage][]entry), logger: logger}
}

// Register adds fn under key for the stage.
func (r *Registry) Register(stage Stage, key string, fn Func) error {
	if !stage.valid() {
		return fmt.Errorf("unknown hook stage %q", stage)
	}
	key = normalizeKey(key)
	if key == "" {
		return errors.New("hook key required")
	}
	if fn == nil {
		return fmt.Errorf("hook %s: callback required", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	for _, existing := range r.stages[stage] {
		if existing.key == key {
			return ErrDuplicateHook
		}
	}
	r.stages[stage] = append(r.stages[stage], entry{key: key, fn: fn})
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(stage Stage, key string, fn Func) {
	if err := r.Register(stage, key, fn); err != nil {
		panic(err)
	}
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Run invokes every callback of the stage synchronously, in registration
// order. A panicking callback is logged and skipped.
func (r *Registry) Run(stage Stage, c fiber.Ctx, out *reply.Reply) {
	if r == nil {
		return
	}
	r.mu.RLock()
	entries := r.stages[stage]
	r.mu.RUnlock()

	for _, e := range entries {
		r.invoke(stage, e, c, out)
	}
}

func (r *Registry) invoke(stage Stage, e entry, c fiber.Ctx, out *reply.Reply) {
	defer func() {
		if recovered := recover(); recovered != nil && r.logger != nil {
			r.logger.WithFields(logrus.Fields{
				"action": "hook",
				"stage":  string(stage),
				"hook":   e.key,
			}).Errorf("hook panic: %v", recovered)
		}
	}()
	e.fn(c, out)
}

// Keys returns the keys registered for the stage, in execution order.
func (r *Registry) Keys(stage Stage) []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.stages[stage]
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

// Status returns "registered" or "missing" for a key on the stage.
func (r *Registry) Status(stage Stage, key string) string {
	key = normalizeKey(key)
	for _, existing := range r.Keys(stage) {
		if existing == key {
			return "registered"
		}
	}
	return "missing"
}

// Snapshot returns the registered keys of every stage, used by diagnostics.
func (r *Registry) Snapshot() map[string][]string {
	out := make(map[string][]string, len(Stages))
	for _, stage := range Stages {
		keys := r.Keys(stage)
		if keys == nil {
			keys = []string{}
		}
		out[string(stage)] = keys
	}
	return out
}

// AllKeys returns the distinct keys across stages, sorted.
func (r *Registry) AllKeys() []string {
	seen := make(map[string]struct{})
	for _, stage := range Stages {
		for _, key := range r.Keys(stage) {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
