// Package origin forwards requests that no service or local file can answer
// to the configured origin and relays the response.
package origin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devweb/devweb/internal/reply"
	"github.com/devweb/devweb/internal/telemetry"
)

// Request describes the outbound call. Target is the rewritten path plus raw
// query of the inbound request.
type Request struct {
	RequestID     string
	Method        string
	Target        string
	ContentType   string
	ContentLength string
	Body          []byte
}

// Forwarder issues origin requests with the bearer credential attached.
type Forwarder struct {
	client  *http.Client
	base    *url.URL
	token   string
	logger  *logrus.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// Options configures a Forwarder.
type Options struct {
	Client      *http.Client
	OriginURL   string
	AccessToken string
	Logger      *logrus.Logger
	Metrics     *telemetry.Metrics
}

// NewForwarder validates the origin URL and returns a Forwarder.
func NewForwarder(opts Options) (*Forwarder, error) {
	if opts.Client == nil {
		return nil, errors.New("http client is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	base, err := url.Parse(opts.OriginURL)
	if err != nil {
		return nil, fmt.Errorf("invalid origin %q: %w", opts.OriginURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("origin %q needs scheme and host", opts.OriginURL)
	}
	return &Forwarder{
		client:  opts.Client,
		base:    base,
		token:   opts.AccessToken,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     time.Now,
	}, nil
}

// Origin returns the scheme://host the forwarder talks to.
func (f *Forwarder) Origin() string {
	return f.base.Scheme + "://" + f.base.Host
}

// Forward performs the outbound call and always returns a reply: the relayed
// upstream response, the fixed 404 when the origin answers 404, or the fixed
// 500 on transport failure. It does not retry.
func (f *Forwarder) Forward(ctx context.Context, in Request) *reply.Reply {
	started := f.now()
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := f.buildRequest(ctx, in)
	if err != nil {
		f.logResult(in, 0, started, err)
		f.metrics.ObserveFailure("transport")
		return reply.ServerError()
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.metrics.ObserveUpstream(0)
		f.metrics.ObserveFailure("transport")
		f.logResult(in, 0, started, err)
		return reply.ServerError()
	}
	f.metrics.ObserveUpstream(resp.StatusCode)
	f.logResult(in, resp.StatusCode, started, nil)

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		return reply.RemoteNotFound()
	}

	out := reply.Stream(resp.StatusCode, resp.Body, resp.ContentLength)
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		out.Header.Set("Content-Type", ct)
	}
	if location := resp.Header.Get("Location"); location != "" && isRedirect(resp.StatusCode) {
		out.Header.Set("Location", location)
	}
	out.SetDevCaching(f.now())
	return out
}

func (f *Forwarder) buildRequest(ctx context.Context, in Request) (*http.Request, error) {
	target := in.Target
	if target == "" || !strings.HasPrefix(target, "/") {
		target = "/" + target
	}

	var body io.Reader = http.NoBody
	if in.Method != http.MethodGet && len(in.Body) > 0 {
		body = bytes.NewReader(in.Body)
	}

	req, err := http.NewRequestWithContext(ctx, in.Method, f.Origin()+target, body)
	if err != nil {
		return nil, err
	}
	req.Host = f.base.Host
	req.Header.Set("Authorization", "Bearer "+f.token)

	if in.Method != http.MethodGet {
		if in.ContentType != "" {
			req.Header.Set("Content-Type", in.ContentType)
		}
		// net/http derives Content-Length from the body; the inbound value is
		// only kept for the log line when it disagrees with what is sent.
		req.ContentLength = int64(len(in.Body))
	}
	return req, nil
}

func (f *Forwarder) logResult(in Request, status int, started time.Time, err error) {
	fields := logrus.Fields{
		"action":          "proxy",
		"method":          in.Method,
		"path":            in.Target,
		"upstream":        f.Origin(),
		"upstream_status": status,
		"elapsed_ms":      f.now().Sub(started).Milliseconds(),
	}
	if in.RequestID != "" {
		fields["request_id"] = in.RequestID
	}
	if in.Method != http.MethodGet && in.ContentLength != "" && in.ContentLength != fmt.Sprint(len(in.Body)) {
		fields["inbound_content_length"] = in.ContentLength
	}
	if err != nil {
		fields["error"] = err.Error()
		if errors.Is(err, context.Canceled) {
			f.logger.WithFields(fields).Info("proxy_cancelled")
			return
		}
		f.logger.WithFields(fields).Error("proxy_failed")
		return
	}
	f.logger.WithFields(fields).Info("proxy_complete")
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}
