// Package routes 注册 /-/ 前缀下的诊断接口，仅在 EnableDiagnostics 打开时挂载。
package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/devweb/devweb/internal/server"
	"github.com/devweb/devweb/internal/service"
)

// RegisterDiagnostics 暴露 /-/services、/-/hooks 与 /-/metrics，便于排查服务与钩子注册情况。
func RegisterDiagnostics(app *fiber.App, rt *server.Runtime) {
	if app == nil || rt == nil {
		return
	}

	app.Get("/-/services", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"services": encodeServices(rt.Services),
			"builtins": encodeBuiltins(service.Builtins(), rt.Services),
		})
	})

	app.Get("/-/hooks", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"hooks": rt.Hooks.Snapshot()})
	})

	app.Get("/-/metrics", adaptor.HTTPHandler(rt.Metrics.Handler()))
}

type servicePayload struct {
	Name   string `json:"name"`
	Route  string `json:"route"`
	Source string `json:"source"`
}

type builtinPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

func encodeServices(registry *service.Registry) []servicePayload {
	names := registry.Names()
	sources := registry.Sources()
	result := make([]servicePayload, 0, len(names))
	for _, name := range names {
		result = append(result, servicePayload{
			Name:   name,
			Route:  "/" + name,
			Source: sources[name],
		})
	}
	return result
}

func encodeBuiltins(builtins []service.Builtin, registry *service.Registry) []builtinPayload {
	sources := registry.Sources()
	result := make([]builtinPayload, 0, len(builtins))
	for _, b := range builtins {
		result = append(result, builtinPayload{
			Name:        b.Name,
			Description: b.Description,
			Enabled:     sources[b.Name] == service.SourceBuiltin,
		})
	}
	return result
}
