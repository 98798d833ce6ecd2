package hooks

import (
	"sort"

	"github.com/gofiber/fiber/v3"

	"github.com/devweb/devweb/internal/reply"
)

// ResponseHeadersKey is the key of the built-in header hook.
const ResponseHeadersKey = "response-headers"

// ResponseHeaders returns an OnResponseSend callback that sets the given
// headers on every reply, overriding values set by the branch.
func ResponseHeaders(headers map[string]string) Func {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(_ fiber.Ctx, out *reply.Reply) {
		if out == nil {
			return
		}
		for _, name := range names {
			out.Header.Set(name, headers[name])
		}
	}
}

// RegisterBuiltins adds the callbacks driven by configuration. An empty
// header map registers nothing.
func RegisterBuiltins(r *Registry, headers map[string]string) error {
	if len(headers) == 0 {
		return nil
	}
	return r.Register(OnResponseSend, ResponseHeadersKey, ResponseHeaders(headers))
}
