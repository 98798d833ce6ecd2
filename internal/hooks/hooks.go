// Package hooks runs the lifecycle callbacks registered for the two dispatch
// stages. Callbacks observe or mutate the request and the pending reply but
// cannot short-circuit the pipeline.
package hooks

import (
	"github.com/gofiber/fiber/v3"

	"github.com/devweb/devweb/internal/reply"
)

// Stage names a point in the dispatch pipeline.
type Stage string

const (
	// OnRequestReceive runs before the path is rewritten. The reply is nil.
	OnRequestReceive Stage = "onRequestReceive"
	// OnResponseSend runs after a branch produced its reply and before the
	// reply is written.
	OnResponseSend Stage = "onResponseSend"
)

// Stages lists the supported stages in pipeline order.
var Stages = []Stage{OnRequestReceive, OnResponseSend}

// Func is a lifecycle callback. c is the inbound request context, out the
// reply that will be emitted (nil during OnRequestReceive).
type Func func(c fiber.Ctx, out *reply.Reply)

func (s Stage) valid() bool {
	return s == OnRequestReceive || s == OnResponseSend
}
