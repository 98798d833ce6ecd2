// Package reply holds the response value that every dispatch branch
// produces. The dispatcher emits exactly one Reply per request.
package reply

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// Fixed bodies for the error taxonomy surfaced to clients.
const (
	BodyServerError    = "Server error - sorry"
	BodyRemoteNotFound = "Not found on remote"
)

// DefaultContentType applies when no branch sets a content type.
const DefaultContentType = "text/html"

// Reply is a status, headers and a body stream.
type Reply struct {
	Status int
	Header http.Header
	Body   io.Reader

	// Size is the body length when known, or -1.
	Size int64
	// Streamed marks a Reply whose body is read from a source that may fail
	// mid-stream (local file or upstream response).
	Streamed bool

	closer io.Closer
}

// New returns an empty 200 reply.
func New() *Reply {
	return &Reply{Status: http.StatusOK, Header: http.Header{}, Size: -1}
}

// Bytes builds a reply with an in-memory body.
func Bytes(status int, contentType string, body []byte) *Reply {
	r := New()
	r.Status = status
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	r.Body = bytes.NewReader(body)
	r.Size = int64(len(body))
	return r
}

// Text builds a plain text reply.
func Text(status int, body string) *Reply {
	return Bytes(status, "text/plain; charset=utf-8", []byte(body))
}

// JSON encodes v and returns an application/json reply.
func JSON(status int, v interface{}) (*Reply, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Bytes(status, "application/json", payload), nil
}

// Stream builds a reply whose body is read from rc and closed by Close.
func Stream(status int, rc io.ReadCloser, size int64) *Reply {
	r := New()
	r.Status = status
	r.Body = rc
	r.Size = size
	r.Streamed = true
	r.closer = rc
	return r
}

// ServerError is the fixed 500 used for transport, stream and handler failures.
func ServerError() *Reply {
	return Text(http.StatusInternalServerError, BodyServerError)
}

// RemoteNotFound is the fixed 404 used when the origin answers 404.
func RemoteNotFound() *Reply {
	return Text(http.StatusNotFound, BodyRemoteNotFound)
}

// SetDevCaching marks the reply cacheable but immediately stale, so browsers
// always revalidate during development.
func (r *Reply) SetDevCaching(now time.Time) {
	r.Header.Set("Cache-Control", "public, max-age=0")
	r.Header.Set("Expires", now.UTC().Format(http.TimeFormat))
}

// ContentType returns the configured content type or DefaultContentType.
func (r *Reply) ContentType() string {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return DefaultContentType
}

// Close releases the underlying stream, if any.
func (r *Reply) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Release hands the body and its closer to the caller, who becomes
// responsible for closing it. Close on r is a no-op afterwards.
func (r *Reply) Release() io.ReadCloser {
	if r == nil || r.Body == nil {
		return nil
	}
	out := &releasedBody{Reader: r.Body, closer: r.closer}
	r.Body = nil
	r.closer = nil
	return out
}

type releasedBody struct {
	io.Reader
	closer io.Closer
}

func (b *releasedBody) Close() error {
	if b.closer == nil {
		return nil
	}
	err := b.closer.Close()
	b.closer = nil
	return err
}
