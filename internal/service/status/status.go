// Package status 注册内置的 devweb/status 服务，输出当前运行配置的概要。
package status

import (
	"context"
	"errors"
	"net/http"

	"github.com/devweb/devweb/internal/reply"
	"github.com/devweb/devweb/internal/service"
	"github.com/devweb/devweb/internal/version"
)

// Name is the route the service answers.
const Name = "devweb/status"

// Report is the JSON document returned by the service.
type Report struct {
	Version     string              `json:"version"`
	Origin      string              `json:"origin"`
	AuthMode    string              `json:"auth_mode"`
	WebRoot     string              `json:"web_root"`
	Redirects   []string            `json:"redirects"`
	Criteria    []string            `json:"extraction_criteria"`
	Services    []string            `json:"services"`
	Hooks       map[string][]string `json:"hooks"`
	Diagnostics bool                `json:"diagnostics"`
}

func init() {
	service.MustRegisterBuiltin(service.Builtin{
		Name:        Name,
		Description: "Reports version, origin, web root, services and hooks",
		New:         New,
	})
}

// New binds the status handler to the registry it reports on.
func New(env service.Env) (service.Handler, error) {
	if env.Registry == nil {
		return nil, errors.New("service registry is required")
	}
	registry := env.Registry
	return service.HandlerFunc(func(_ context.Context, call *service.Call) (*reply.Reply, error) {
		return reply.JSON(http.StatusOK, buildReport(call, registry))
	}), nil
}

func buildReport(call *service.Call, registry *service.Registry) Report {
	report := Report{
		Version:  version.Full(),
		Services: registry.Names(),
		Hooks:    call.Hooks.Snapshot(),
	}
	if cfg := call.Config; cfg != nil {
		report.Origin = cfg.OriginURL()
		report.AuthMode = cfg.AuthMode()
		report.WebRoot = cfg.LocalWebRoot
		report.Redirects = cfg.RedirectPrefixes()
		report.Criteria = cfg.ExtractionCriteria
		report.Diagnostics = cfg.EnableDiagnostics
	}
	return report
}
