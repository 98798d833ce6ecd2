// Package echo 注册内置的 echo 服务：把解析后的路由、查询参数与请求体以 JSON 原样返回，
// 便于调试重定向规则与提取条件。
package echo

import (
	"context"
	"net/http"

	"github.com/devweb/devweb/internal/reply"
	"github.com/devweb/devweb/internal/service"
)

// Name is the route the service answers.
const Name = "echo"

// Payload is the JSON document returned by the service.
type Payload struct {
	Method    string            `json:"method,omitempty"`
	Route     string            `json:"route"`
	Query     string            `json:"query"`
	Pairs     map[string]string `json:"pairs"`
	Body      string            `json:"body"`
	Extracted bool              `json:"extracted"`
	RequestID string            `json:"request_id,omitempty"`
}

func init() {
	service.MustRegisterBuiltin(service.Builtin{
		Name:        Name,
		Description: "Reflects route, query pairs and extracted body as JSON",
		New: func(service.Env) (service.Handler, error) {
			return service.HandlerFunc(Serve), nil
		},
	})
}

// Serve builds the echo payload for call.
func Serve(_ context.Context, call *service.Call) (*reply.Reply, error) {
	payload := Payload{
		Route:     call.Parts.Route,
		Query:     call.Parts.Query,
		Pairs:     call.Parts.Pairs,
		Body:      string(call.Body),
		Extracted: call.HasBody,
		RequestID: call.RequestID,
	}
	if payload.Pairs == nil {
		payload.Pairs = map[string]string{}
	}
	if call.Ctx != nil {
		payload.Method = call.Ctx.Method()
	}
	return reply.JSON(http.StatusOK, payload)
}
