package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Dispatcher answers every request that is not a diagnostics call. It allows
// injecting fake dispatchers during tests.
type Dispatcher interface {
	Dispatch(c fiber.Ctx, requestID string) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fiber.Ctx, string) error

// Dispatch makes DispatcherFunc satisfy Dispatcher.
func (f DispatcherFunc) Dispatch(c fiber.Ctx, requestID string) error {
	return f(c, requestID)
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger      *logrus.Logger
	Dispatcher  Dispatcher
	Diagnostics bool
}

const (
	contextKeyRequestID = "_devweb_request_id"

	// 本地开发场景下允许较大的上传请求体。
	maxBodySize = 64 << 20
)

// NewApp builds a Fiber application that hands every request to the
// dispatcher. With Diagnostics enabled, /-/ paths fall through to the routes
// registered after NewApp returns.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		BodyLimit:     maxBodySize,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	app.All("/*", func(c fiber.Ctx) error {
		if opts.Diagnostics && isDiagnosticsPath(string(c.Request().URI().Path())) {
			return c.Next()
		}
		return opts.Dispatcher.Dispatch(c, RequestID(c))
	})

	return app, nil
}

// requestIDMiddleware 为每个请求生成 ID，并写入响应头 X-Request-ID。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
