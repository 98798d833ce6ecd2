package dispatch

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/devweb/devweb/internal/config"
	"github.com/devweb/devweb/internal/extract"
	"github.com/devweb/devweb/internal/hooks"
	"github.com/devweb/devweb/internal/origin"
	"github.com/devweb/devweb/internal/route"
	"github.com/devweb/devweb/internal/service"
	"github.com/devweb/devweb/internal/static"
	"github.com/devweb/devweb/internal/telemetry"
)

type upstreamRequest struct {
	Method string
	URI    string
	Auth   string
	Body   string
}

type upstreamStub struct {
	*httptest.Server
	mu       sync.Mutex
	requests []upstreamRequest
}

func newUpstreamStub(t *testing.T, handler http.HandlerFunc) *upstreamStub {
	t.Helper()
	stub := &upstreamStub{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		stub.mu.Lock()
		stub.requests = append(stub.requests, upstreamRequest{
			Method: r.Method,
			URI:    r.URL.RequestURI(),
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		stub.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(stub.Close)
	return stub
}

func (s *upstreamStub) Requests() []upstreamRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]upstreamRequest(nil), s.requests...)
}

func okUpstream(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"from":"origin"}`))
}

// closedOrigin returns an address nothing listens on.
func closedOrigin(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("unable to reserve port: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()
	return "http://" + addr
}

type fixture struct {
	t        *testing.T
	root     string
	cfg      *config.Config
	services *service.Registry
	hooks    *hooks.Registry
	metrics  *telemetry.Metrics
	logs     *bytes.Buffer
	logger   *logrus.Logger
}

func newFixture(t *testing.T, originURL string) *fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(logs)
	logger.SetLevel(logrus.DebugLevel)

	root := t.TempDir()
	return &fixture{
		t:    t,
		root: root,
		cfg: &config.Config{
			Host:               "127.0.0.1",
			Port:               8000,
			LocalWebRoot:       root,
			ProxyHost:          originURL,
			AccessToken:        "tok",
			AddressRedirects:   map[string]string{},
			MimeMap:            config.DefaultMimeMap(),
			ExtractionCriteria: []string{config.CriterionMethod},
			UpstreamTimeout:    config.Duration(5 * time.Second),
		},
		services: service.NewRegistry(),
		hooks:    hooks.NewRegistry(logger),
		metrics:  telemetry.NewMetrics(),
		logs:     logs,
		logger:   logger,
	}
}

func (f *fixture) writeFile(rel, content string) {
	f.t.Helper()
	target := filepath.Join(f.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		f.t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		f.t.Fatalf("write failed: %v", err)
	}
}

func (f *fixture) register(name string, handler service.HandlerFunc) {
	f.t.Helper()
	if err := f.services.Register(name, "test", handler); err != nil {
		f.t.Fatalf("register %s failed: %v", name, err)
	}
}

func (f *fixture) dispatcher() *Dispatcher {
	f.t.Helper()
	forwarder, err := origin.NewForwarder(origin.Options{
		Client:      origin.NewClient(f.cfg),
		OriginURL:   f.cfg.OriginURL(),
		AccessToken: f.cfg.AccessToken,
		Logger:      f.logger,
		Metrics:     f.metrics,
	})
	if err != nil {
		f.t.Fatalf("forwarder failed: %v", err)
	}
	d, err := New(Options{
		Config:    f.cfg,
		Logger:    f.logger,
		Rewriter:  route.NewRewriter(route.NewRules(f.cfg.AddressRedirects), f.logger),
		Services:  f.services,
		Files:     static.NewResolver(f.cfg.LocalWebRoot, f.cfg.MimeMap),
		Extractor: extract.NewExtractor(f.cfg.ExtractionCriteria),
		Origin:    forwarder,
		Hooks:     f.hooks,
		Metrics:   f.metrics,
	})
	if err != nil {
		f.t.Fatalf("dispatcher failed: %v", err)
	}
	return d
}

func (f *fixture) app() *fiber.App {
	f.t.Helper()
	d := f.dispatcher()
	app := fiber.New()
	app.All("/*", func(c fiber.Ctx) error {
		return d.Dispatch(c, "req-test")
	})
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	return resp, string(body)
}

func (f *fixture) metricsText() string {
	rec := httptest.NewRecorder()
	f.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}
