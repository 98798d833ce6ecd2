package dispatch

import (
	"io"

	"github.com/gofiber/fiber/v3"

	"github.com/devweb/devweb/internal/hooks"
	"github.com/devweb/devweb/internal/reply"
	"github.com/devweb/devweb/internal/route"
)

// streamThreshold 以上且长度已知的流式 body 交给 fasthttp 边读边写，不再整体缓冲。
const streamThreshold = 1 << 20

// emit runs the OnResponseSend hooks and writes out to the response. fasthttp
// only flushes once the handler returns, so a buffered body that fails
// mid-copy is replaced with the fixed 500. Large streamed bodies are sent
// chunk by chunk; a failure there can only abort the connection. It returns
// the status actually written.
func (d *Dispatcher) emit(c fiber.Ctx, out *reply.Reply, requestID string, parts route.Parts) int {
	if out == nil {
		out = reply.New()
	}
	defer out.Close()

	d.hooks.Run(hooks.OnResponseSend, c, out)

	resp := c.Response()
	for name, values := range out.Header {
		if len(values) == 0 {
			continue
		}
		resp.Header.Set(name, values[0])
		for _, value := range values[1:] {
			resp.Header.Add(name, value)
		}
	}
	resp.Header.SetContentType(out.ContentType())
	c.Status(out.Status)

	if out.Body == nil {
		return out.Status
	}
	if out.Streamed && out.Size > streamThreshold {
		// fasthttp 写完后负责关闭
		resp.SetBodyStream(out.Release(), int(out.Size))
		return out.Status
	}
	if _, err := io.Copy(resp.BodyWriter(), out.Body); err != nil {
		d.logFailure(requestID, c, parts, "stream", err)
		resp.ResetBody()
		resp.Header.Del(fiber.HeaderContentLength)
		resp.Header.SetContentType("text/plain; charset=utf-8")
		c.Status(fiber.StatusInternalServerError)
		_, _ = resp.BodyWriter().Write([]byte(reply.BodyServerError))
		return fiber.StatusInternalServerError
	}
	return out.Status
}
