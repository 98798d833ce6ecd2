package static

import (
	"path"
	"strings"

	"github.com/devweb/devweb/internal/reply"
)

// MimeMap maps an extension with its leading dot to a content type.
type MimeMap map[string]string

// NewMimeMap copies m with lower-cased keys.
func NewMimeMap(m map[string]string) MimeMap {
	out := make(MimeMap, len(m))
	for ext, contentType := range m {
		out[strings.ToLower(ext)] = contentType
	}
	return out
}

// TypeOf returns the content type for name's extension, or text/html.
func (m MimeMap) TypeOf(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext != "" {
		if contentType, ok := m[ext]; ok {
			return contentType
		}
	}
	return reply.DefaultContentType
}
