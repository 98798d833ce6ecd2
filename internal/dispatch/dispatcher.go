package dispatch

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/devweb/devweb/internal/config"
	"github.com/devweb/devweb/internal/extract"
	"github.com/devweb/devweb/internal/hooks"
	"github.com/devweb/devweb/internal/logging"
	"github.com/devweb/devweb/internal/origin"
	"github.com/devweb/devweb/internal/reply"
	"github.com/devweb/devweb/internal/route"
	"github.com/devweb/devweb/internal/service"
	"github.com/devweb/devweb/internal/static"
	"github.com/devweb/devweb/internal/telemetry"
)

// Forwarder is the origin fallback. *origin.Forwarder satisfies it.
type Forwarder interface {
	Forward(ctx context.Context, in origin.Request) *reply.Reply
}

// Options wires a Dispatcher. Hooks, Rewriter and Metrics may be nil.
type Options struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Rewriter  *route.Rewriter
	Services  *service.Registry
	Files     *static.Resolver
	Extractor *extract.Extractor
	Origin    Forwarder
	Hooks     *hooks.Registry
	Metrics   *telemetry.Metrics
}

// Dispatcher routes requests to a service, a file or the origin.
type Dispatcher struct {
	cfg       *config.Config
	logger    *logrus.Logger
	rewriter  *route.Rewriter
	services  *service.Registry
	files     *static.Resolver
	extractor *extract.Extractor
	origin    Forwarder
	hooks     *hooks.Registry
	metrics   *telemetry.Metrics
	now       func() time.Time
}

// New validates the options and returns a Dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Files == nil {
		return nil, errors.New("static resolver is required")
	}
	if opts.Origin == nil {
		return nil, errors.New("origin forwarder is required")
	}
	services := opts.Services
	if services == nil {
		services = service.NewRegistry()
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = extract.NewExtractor(opts.Config.ExtractionCriteria)
	}
	return &Dispatcher{
		cfg:       opts.Config,
		logger:    opts.Logger,
		rewriter:  opts.Rewriter,
		services:  services,
		files:     opts.Files,
		extractor: extractor,
		origin:    opts.Origin,
		hooks:     opts.Hooks,
		metrics:   opts.Metrics,
		now:       time.Now,
	}, nil
}

// Services exposes the registry for diagnostics.
func (d *Dispatcher) Services() *service.Registry {
	return d.services
}

// Hooks exposes the hook registry for diagnostics.
func (d *Dispatcher) Hooks() *hooks.Registry {
	return d.hooks
}

// Dispatch handles one inbound request and writes exactly one reply.
func (d *Dispatcher) Dispatch(c fiber.Ctx, requestID string) error {
	started := d.now()
	d.hooks.Run(hooks.OnRequestReceive, c, nil)

	target := c.OriginalURL()
	rewritten := d.rewriter.Rewrite(target)
	if rewritten != target {
		c.Request().SetRequestURI(rewritten)
	}
	parts := route.Parse(rewritten)

	outcome, out := d.resolve(c, parts, requestID)
	status := d.emit(c, out, requestID, parts)

	elapsed := d.now().Sub(started)
	d.metrics.ObserveDispatch(outcome, status, elapsed)

	fields := logging.RequestFields(requestID, c.Method(), target, parts.Route)
	fields["action"] = "dispatch"
	fields["outcome"] = outcome
	fields["status"] = status
	fields["elapsed_ms"] = elapsed.Milliseconds()
	if rewritten != target {
		fields["rewritten"] = rewritten
	}
	d.logger.WithFields(fields).Info("dispatch_complete")
	return nil
}

// resolve runs the priority chain and returns the outcome with its reply.
func (d *Dispatcher) resolve(c fiber.Ctx, parts route.Parts, requestID string) (string, *reply.Reply) {
	if handler, ok := d.services.Lookup(parts.Name()); ok {
		return telemetry.OutcomeService, d.serveService(c, handler, parts, requestID)
	}
	if out, err := d.files.Resolve(fileRoute(parts.Route)); err == nil {
		return telemetry.OutcomeFile, out
	}
	return telemetry.OutcomeProxy, d.proxy(c, parts, requestID)
}

func (d *Dispatcher) serveService(c fiber.Ctx, handler service.Handler, parts route.Parts, requestID string) *reply.Reply {
	body, extracted, err := d.extractor.Body(c)
	if err != nil {
		d.logFailure(requestID, c, parts, "extract", err)
		return reply.ServerError()
	}
	call := &service.Call{
		Config:    d.cfg,
		Parts:     parts,
		Body:      body,
		HasBody:   extracted,
		Hooks:     d.hooks,
		RequestID: requestID,
		Ctx:       c,
	}
	out, err := d.invoke(c.RequestCtx(), handler, parts.Name(), call)
	if err != nil {
		d.logFailure(requestID, c, parts, "service", err)
		return reply.ServerError()
	}
	return out
}

func (d *Dispatcher) proxy(c fiber.Ctx, parts route.Parts, requestID string) *reply.Reply {
	body, _, err := d.extractor.Body(c)
	if err != nil {
		d.logFailure(requestID, c, parts, "extract", err)
		return reply.ServerError()
	}
	header := &c.Request().Header
	return d.origin.Forward(c.RequestCtx(), origin.Request{
		RequestID:     requestID,
		Method:        c.Method(),
		Target:        parts.Target(),
		ContentType:   string(header.ContentType()),
		ContentLength: string(header.Peek(fiber.HeaderContentLength)),
		Body:          body,
	})
}

// fileRoute decodes percent escapes for the file lookup; an undecodable
// route is looked up as-is.
func fileRoute(raw string) string {
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (d *Dispatcher) logFailure(requestID string, c fiber.Ctx, parts route.Parts, kind string, err error) {
	d.metrics.ObserveFailure(kind)
	fields := logging.RequestFields(requestID, c.Method(), parts.Target(), parts.Route)
	fields["action"] = "dispatch"
	fields["failure"] = kind
	fields["error"] = err.Error()
	d.logger.WithFields(fields).Error("dispatch_failed")
}
