package reply

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestFixedErrorReplies(t *testing.T) {
	r := ServerError()
	if r.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", r.Status)
	}
	body, _ := io.ReadAll(r.Body)
	if string(body) != BodyServerError {
		t.Fatalf("unexpected body %q", body)
	}

	r = RemoteNotFound()
	body, _ = io.ReadAll(r.Body)
	if r.Status != http.StatusNotFound || string(body) != "Not found on remote" {
		t.Fatalf("unexpected remote not found reply %d %q", r.Status, body)
	}
}

func TestContentTypeFallback(t *testing.T) {
	r := New()
	if r.ContentType() != "text/html" {
		t.Fatalf("expected text/html fallback, got %s", r.ContentType())
	}
	r.Header.Set("Content-Type", "text/css")
	if r.ContentType() != "text/css" {
		t.Fatalf("expected configured content type, got %s", r.ContentType())
	}
}

func TestSetDevCaching(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := New()
	r.SetDevCaching(now)
	if r.Header.Get("Cache-Control") != "public, max-age=0" {
		t.Fatalf("unexpected cache-control %q", r.Header.Get("Cache-Control"))
	}
	if r.Header.Get("Expires") != "Fri, 01 Mar 2024 12:00:00 GMT" {
		t.Fatalf("unexpected expires %q", r.Header.Get("Expires"))
	}
}

type trackingCloser struct {
	io.Reader
	closed int
}

func (c *trackingCloser) Close() error {
	c.closed++
	return nil
}

func TestStreamCloseOnce(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("x")}
	r := Stream(http.StatusOK, rc, 1)
	if !r.Streamed {
		t.Fatalf("stream replies should be marked streamed")
	}
	_ = r.Close()
	_ = r.Close()
	if rc.closed != 1 {
		t.Fatalf("expected a single close, got %d", rc.closed)
	}
}

func TestReleaseTransfersClose(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("payload")}
	r := Stream(http.StatusOK, rc, 7)
	body := r.Release()
	if r.Body != nil {
		t.Fatalf("released reply should drop its body")
	}
	_ = r.Close()
	if rc.closed != 0 {
		t.Fatalf("Close after Release must not close the stream")
	}
	data, _ := io.ReadAll(body)
	if string(data) != "payload" {
		t.Fatalf("unexpected body %q", data)
	}
	_ = body.Close()
	_ = body.Close()
	if rc.closed != 1 {
		t.Fatalf("expected a single close, got %d", rc.closed)
	}
	if New().Release() != nil {
		t.Fatalf("empty reply has nothing to release")
	}
}
