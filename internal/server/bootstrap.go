package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/devweb/devweb/internal/config"
	"github.com/devweb/devweb/internal/dispatch"
	"github.com/devweb/devweb/internal/extract"
	"github.com/devweb/devweb/internal/hooks"
	"github.com/devweb/devweb/internal/origin"
	"github.com/devweb/devweb/internal/route"
	"github.com/devweb/devweb/internal/service"
	"github.com/devweb/devweb/internal/service/fixture"
	"github.com/devweb/devweb/internal/static"
	"github.com/devweb/devweb/internal/telemetry"

	// 内置服务在 init() 中登记到 service 目录。
	_ "github.com/devweb/devweb/internal/service/echo"
	_ "github.com/devweb/devweb/internal/service/status"
)

// Runtime holds the components built once at startup. Services and Hooks are
// frozen before NewRuntime returns.
type Runtime struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Services   *service.Registry
	Hooks      *hooks.Registry
	Metrics    *telemetry.Metrics
	Dispatcher *dispatch.Dispatcher
}

// Extension registers additional services or hooks before the registries are
// frozen, for embedding and tests.
type Extension func(rt *Runtime) error

// NewRuntime 按“指标 → 钩子 → 服务 → 回源 → 分发器”的顺序组装运行时，
// 所有请求共享同一套只读注册表。
func NewRuntime(cfg *config.Config, logger *logrus.Logger, extensions ...Extension) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Services: service.NewRegistry(),
		Hooks:    hooks.NewRegistry(logger),
		Metrics:  telemetry.NewMetrics(),
	}

	if err := hooks.RegisterBuiltins(rt.Hooks, cfg.ResponseHeaders); err != nil {
		return nil, fmt.Errorf("注册内置钩子失败: %w", err)
	}
	if err := service.EnableBuiltins(service.Env{
		Config:   cfg,
		Logger:   logger,
		Registry: rt.Services,
	}, cfg.Services); err != nil {
		return nil, err
	}
	if _, err := fixture.Load(cfg.ServiceFilePath, rt.Services, logger); err != nil {
		return nil, fmt.Errorf("服务文件无效: %w", err)
	}
	for _, ext := range extensions {
		if err := ext(rt); err != nil {
			return nil, err
		}
	}

	forwarder, err := origin.NewForwarder(origin.Options{
		Client:      origin.NewClient(cfg),
		OriginURL:   cfg.OriginURL(),
		AccessToken: cfg.AccessToken,
		Logger:      logger,
		Metrics:     rt.Metrics,
	})
	if err != nil {
		return nil, err
	}

	rt.Dispatcher, err = dispatch.New(dispatch.Options{
		Config:    cfg,
		Logger:    logger,
		Rewriter:  route.NewRewriter(route.NewRules(cfg.AddressRedirects), logger),
		Services:  rt.Services,
		Files:     static.NewResolver(cfg.LocalWebRoot, cfg.MimeMap),
		Extractor: extract.NewExtractor(cfg.ExtractionCriteria),
		Origin:    forwarder,
		Hooks:     rt.Hooks,
		Metrics:   rt.Metrics,
	})
	if err != nil {
		return nil, err
	}

	rt.Services.Freeze()
	rt.Hooks.Freeze()
	rt.logServices()
	return rt, nil
}

func (rt *Runtime) logServices() {
	names := rt.Services.Names()
	fields := logrus.Fields{
		"action":   "services",
		"services": len(names),
	}
	if len(names) == 0 {
		rt.Logger.WithFields(fields).Info("No services made available")
		return
	}
	routes := make([]string, len(names))
	for i, name := range names {
		routes[i] = "/" + name
	}
	fields["available"] = strings.Join(routes, ",")
	rt.Logger.WithFields(fields).Info("services available")
}
