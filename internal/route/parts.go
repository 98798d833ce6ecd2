package route

import "strings"

// Parts is the parsed form of a request target. It is built once per request
// and never mutated afterwards.
type Parts struct {
	// Route is the path without the query string.
	Route string
	// Query is the raw query including the leading "?", or empty.
	Query string
	// Pairs maps query keys to values; duplicate keys keep the last value.
	Pairs map[string]string

	valueless map[string]struct{}
}

// Parse splits target on the first "?" and the query on "&", then each
// segment on its first "=". Empty segments are skipped.
func Parse(target string) Parts {
	idx := strings.IndexByte(target, '?')
	if idx < 0 {
		return Parts{Route: target, Pairs: map[string]string{}}
	}

	parts := Parts{
		Route: target[:idx],
		Query: target[idx:],
		Pairs: map[string]string{},
	}
	for _, segment := range strings.Split(target[idx+1:], "&") {
		if segment == "" {
			continue
		}
		key, value, found := strings.Cut(segment, "=")
		parts.Pairs[key] = value
		if found {
			delete(parts.valueless, key)
			continue
		}
		if parts.valueless == nil {
			parts.valueless = map[string]struct{}{}
		}
		parts.valueless[key] = struct{}{}
	}
	return parts
}

// Name returns the route with its leading "/" stripped, which is the key used
// for service lookups.
func (p Parts) Name() string {
	return strings.TrimPrefix(p.Route, "/")
}

// Target reassembles route and query.
func (p Parts) Target() string {
	return p.Route + p.Query
}

// Value reports the value for key. ok is false when the key is absent or was
// given without "=".
func (p Parts) Value(key string) (string, bool) {
	if _, bare := p.valueless[key]; bare {
		return "", false
	}
	value, ok := p.Pairs[key]
	return value, ok
}

// Has reports whether key appeared in the query at all.
func (p Parts) Has(key string) bool {
	_, ok := p.Pairs[key]
	return ok
}

// HasValue reports whether key appeared with an "=".
func (p Parts) HasValue(key string) bool {
	_, ok := p.Value(key)
	return ok
}

// DirectoryIndex reports whether the route addresses a directory.
func (p Parts) DirectoryIndex() bool {
	return strings.HasSuffix(p.Route, "/")
}
