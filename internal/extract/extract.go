// Package extract decides whether a request body is buffered before a
// service or the origin sees it, and performs the buffering.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/devweb/devweb/internal/config"
)

// Request is the part of an inbound request the criteria inspect.
type Request interface {
	Method() string
	HasBodyHeaders() bool
}

// Criteria is the configured list of policy tags. Each tag is evaluated on
// its own and extraction happens only when all of them hold. An empty list
// never extracts.
type Criteria []string

// ShouldExtract evaluates every tag against req.
func (c Criteria) ShouldExtract(req Request) bool {
	if len(c) == 0 {
		return false
	}
	for _, tag := range c {
		if !evaluate(tag, req) {
			return false
		}
	}
	return true
}

func evaluate(tag string, req Request) bool {
	switch tag {
	case config.CriterionMethod:
		return req.Method() != http.MethodGet
	case config.CriterionHeader:
		return req.HasBodyHeaders()
	default:
		return false
	}
}

// Extractor buffers request bodies according to its Criteria.
type Extractor struct {
	criteria Criteria
}

// NewExtractor returns an Extractor for the given tags.
func NewExtractor(criteria []string) *Extractor {
	return &Extractor{criteria: append(Criteria(nil), criteria...)}
}

// Criteria returns the configured tags.
func (e *Extractor) Criteria() Criteria {
	return append(Criteria(nil), e.criteria...)
}

// ShouldExtract applies the criteria to a Fiber request.
func (e *Extractor) ShouldExtract(c fiber.Ctx) bool {
	return e.criteria.ShouldExtract(FiberRequest(c))
}

// Extract reads the whole body in arrival order. When the server streams
// request bodies the chunks are read from the connection here; otherwise the
// body was already received and is copied out of the request.
func (e *Extractor) Extract(c fiber.Ctx) ([]byte, error) {
	if stream := c.Request().BodyStream(); stream != nil {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stream); err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		return buf.Bytes(), nil
	}
	return append([]byte(nil), c.Request().Body()...), nil
}

// Body returns the extracted body when the criteria hold, nil otherwise.
func (e *Extractor) Body(c fiber.Ctx) ([]byte, bool, error) {
	if !e.ShouldExtract(c) {
		return nil, false, nil
	}
	body, err := e.Extract(c)
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

type fiberRequest struct {
	c fiber.Ctx
}

// FiberRequest adapts a Fiber context to Request.
func FiberRequest(c fiber.Ctx) Request {
	return fiberRequest{c: c}
}

func (r fiberRequest) Method() string {
	return r.c.Method()
}

// HasBodyHeaders reports a declared Content-Length or Transfer-Encoding.
// fasthttp keeps the parsed length outside the generic header table and
// records chunked bodies as length -1.
func (r fiberRequest) HasBodyHeaders() bool {
	header := &r.c.Request().Header
	if len(header.Peek(fiber.HeaderContentLength)) > 0 {
		return true
	}
	if len(header.Peek(fiber.HeaderTransferEncoding)) > 0 {
		return true
	}
	return header.ContentLength() == -1
}
