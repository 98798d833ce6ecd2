package dispatch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/devweb/devweb/internal/logging"
	"github.com/devweb/devweb/internal/reply"
	"github.com/devweb/devweb/internal/route"
	"github.com/devweb/devweb/internal/service"
)

// cliPreviewLimit 限制 CLI 触发服务时日志中输出的结果长度。
const cliPreviewLimit = 4096

// invoke 调用服务处理器，panic 会被转换为错误，避免拖垮整个进程。
func (d *Dispatcher) invoke(ctx context.Context, handler service.Handler, name string, call *service.Call) (out *reply.Reply, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			out = nil
			err = fmt.Errorf("service %s panic: %v", name, recovered)
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}
	out, err = handler.Serve(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", name, err)
	}
	if out == nil {
		out = reply.New()
	}
	return out, nil
}

// Trigger invokes the service addressed by arg (e.g. "/build?target=css")
// without an HTTP request. The result is logged and never sent anywhere.
// ok is false when no service matches.
func (d *Dispatcher) Trigger(ctx context.Context, arg string) (ok bool, err error) {
	parts := route.Parse(arg)
	name := parts.Name()
	handler, found := d.services.Lookup(name)
	if !found {
		d.logger.WithFields(logrus.Fields{
			"action":   "service",
			"argument": arg,
			"trigger":  "cli",
		}).Warn("No service found for argument")
		return false, nil
	}

	fields := logging.ServiceFields("", name, "cli")
	out, err := d.invoke(ctx, handler, name, &service.Call{
		Config: d.cfg,
		Parts:  parts,
		Hooks:  d.hooks,
	})
	if err != nil {
		d.metrics.ObserveFailure("service")
		fields["error"] = err.Error()
		d.logger.WithFields(fields).Error("service_failed")
		return true, err
	}
	defer out.Close()

	fields["status"] = out.Status
	if out.Body != nil {
		preview, readErr := io.ReadAll(io.LimitReader(out.Body, cliPreviewLimit+1))
		if readErr != nil {
			fields["error"] = readErr.Error()
			d.logger.WithFields(fields).Error("service_failed")
			return true, readErr
		}
		if len(preview) > cliPreviewLimit {
			preview = preview[:cliPreviewLimit]
			fields["truncated"] = true
		}
		if text := strings.TrimSpace(string(preview)); text != "" {
			fields["result"] = text
		}
	}
	d.logger.WithFields(fields).Info("service_complete")
	return true, nil
}
