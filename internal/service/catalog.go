package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/devweb/devweb/internal/config"
)

// SourceBuiltin marks services enabled from the built-in catalog.
const SourceBuiltin = "builtin"

// Env is handed to built-in factories when they are enabled.
type Env struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Registry *Registry
}

// Builtin describes a service shipped with the binary.
type Builtin struct {
	Name        string
	Description string
	New         func(env Env) (Handler, error)
}

// Validate ensures both name and factory are present before registration.
func (b Builtin) Validate() error {
	if NormalizeName(b.Name) == "" {
		return errors.New("builtin service name required")
	}
	if b.New == nil {
		return fmt.Errorf("builtin service %s: factory required", b.Name)
	}
	return nil
}

type catalog struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

var globalCatalog = newCatalog()

func newCatalog() *catalog {
	return &catalog{builtins: make(map[string]Builtin)}
}

// RegisterBuiltin 将内置服务加入全局目录，重复名称返回 ErrDuplicateService。
func RegisterBuiltin(b Builtin) error {
	return globalCatalog.register(b)
}

// MustRegisterBuiltin 在注册失败时 panic，适合子包 init() 中调用。
func MustRegisterBuiltin(b Builtin) {
	if err := RegisterBuiltin(b); err != nil {
		panic(err)
	}
}

// LookupBuiltin 返回指定名称的内置服务描述。
func LookupBuiltin(name string) (Builtin, bool) {
	return globalCatalog.lookup(name)
}

// Builtins 返回按名称排序的内置服务列表。
func Builtins() []Builtin {
	return globalCatalog.list()
}

// BuiltinNames 返回所有内置服务名称，供配置校验与诊断使用。
func BuiltinNames() []string {
	items := Builtins()
	names := make([]string, len(items))
	for i, b := range items {
		names[i] = b.Name
	}
	return names
}

// EnableBuiltins instantiates every named builtin into env.Registry. Unknown
// names fail with the list of available services.
func EnableBuiltins(env Env, names []string) error {
	if env.Registry == nil {
		return errors.New("service registry is required")
	}
	for _, raw := range names {
		name := NormalizeName(raw)
		b, ok := LookupBuiltin(name)
		if !ok {
			return fmt.Errorf("unknown builtin service %q (available: %s)", raw, strings.Join(BuiltinNames(), ", "))
		}
		handler, err := b.New(env)
		if err != nil {
			return fmt.Errorf("builtin service %s: %w", b.Name, err)
		}
		if err := env.Registry.Register(b.Name, SourceBuiltin, handler); err != nil {
			return err
		}
	}
	return nil
}

func (c *catalog) register(b Builtin) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.Name = NormalizeName(b.Name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.builtins[b.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateService, b.Name)
	}
	c.builtins[b.Name] = b
	return nil
}

func (c *catalog) lookup(name string) (Builtin, bool) {
	name = NormalizeName(name)
	if name == "" {
		return Builtin{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.builtins[name]
	return b, ok
}

func (c *catalog) list() []Builtin {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.builtins))
	for name := range c.builtins {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Builtin, 0, len(names))
	for _, name := range names {
		out = append(out, c.builtins[name])
	}
	return out
}
