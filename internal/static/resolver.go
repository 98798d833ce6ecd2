// Package static resolves request routes to files under the web root and
// turns them into streamed replies.
package static

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/devweb/devweb/internal/reply"
)

// IndexFile is appended to routes that end in "/".
const IndexFile = "index.html"

// ErrNotFound covers every reason a route cannot be served locally: missing
// file, permission, directory, or a path escaping the web root.
var ErrNotFound = errors.New("static file not found")

// Resolver maps routes onto files below Root.
type Resolver struct {
	root string
	mime MimeMap
	now  func() time.Time
}

// NewResolver returns a resolver for the absolute web root.
func NewResolver(root string, mimeMap map[string]string) *Resolver {
	return &Resolver{
		root: filepath.Clean(root),
		mime: NewMimeMap(mimeMap),
		now:  time.Now,
	}
}

// Root returns the web root.
func (r *Resolver) Root() string {
	return r.root
}

// Locate returns the file path a route maps to. ok is false when the route
// would leave the web root.
func (r *Resolver) Locate(route string) (string, bool) {
	name := route
	if name == "" || strings.HasSuffix(name, "/") {
		name += IndexFile
	}
	target := filepath.Join(r.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(r.root, target)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

// Resolve opens the file for route and returns a streaming reply carrying
// the development cache headers. Any failure is ErrNotFound.
func (r *Resolver) Resolve(route string) (*reply.Reply, error) {
	target, ok := r.Locate(route)
	if !ok {
		return nil, ErrNotFound
	}

	file, err := os.Open(target)
	if err != nil {
		return nil, ErrNotFound
	}
	info, err := file.Stat()
	if err != nil || info.IsDir() {
		file.Close()
		return nil, ErrNotFound
	}

	out := reply.Stream(200, file, info.Size())
	out.Header.Set("Content-Type", r.mime.TypeOf(path.Base(filepath.ToSlash(target))))
	out.SetDevCaching(r.now())
	return out, nil
}
