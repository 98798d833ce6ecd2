package service

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/devweb/devweb/internal/config"
	"github.com/devweb/devweb/internal/hooks"
	"github.com/devweb/devweb/internal/reply"
	"github.com/devweb/devweb/internal/route"
)

// Call carries everything a handler may read. Handlers must treat it as
// read-only.
type Call struct {
	Config    *config.Config
	Parts     route.Parts
	Body      []byte
	HasBody   bool
	Hooks     *hooks.Registry
	RequestID string

	// Ctx is the inbound request, nil when the service is triggered from the
	// command line.
	Ctx fiber.Ctx
}

// FromCLI reports whether the call has no HTTP request attached.
func (c *Call) FromCLI() bool {
	return c.Ctx == nil
}

// Handler answers a matched route. A nil reply with a nil error becomes an
// empty 200 response.
type Handler interface {
	Serve(ctx context.Context, call *Call) (*reply.Reply, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, call *Call) (*reply.Reply, error)

// Serve makes HandlerFunc satisfy Handler.
func (f HandlerFunc) Serve(ctx context.Context, call *Call) (*reply.Reply, error) {
	return f(ctx, call)
}
