package route

import "testing"

func TestParseWithoutQuery(t *testing.T) {
	parts := Parse("/style.css")
	if parts.Route != "/style.css" {
		t.Fatalf("unexpected route %q", parts.Route)
	}
	if parts.Query != "" {
		t.Fatalf("expected empty query, got %q", parts.Query)
	}
	if len(parts.Pairs) != 0 {
		t.Fatalf("expected no pairs, got %v", parts.Pairs)
	}
}

func TestParseQueryPairs(t *testing.T) {
	parts := Parse("/calendar/events?month=3&year=2024&month=4&flag&expr=a=b")
	if parts.Route != "/calendar/events" {
		t.Fatalf("unexpected route %q", parts.Route)
	}
	if parts.Query != "?month=3&year=2024&month=4&flag&expr=a=b" {
		t.Fatalf("query should keep leading separator, got %q", parts.Query)
	}
	if parts.Pairs["month"] != "4" {
		t.Fatalf("duplicate keys should keep the last value, got %q", parts.Pairs["month"])
	}
	if parts.Pairs["year"] != "2024" {
		t.Fatalf("unexpected year %q", parts.Pairs["year"])
	}
	if parts.Pairs["expr"] != "a=b" {
		t.Fatalf("value should split on the first '=', got %q", parts.Pairs["expr"])
	}
	if !parts.Has("flag") {
		t.Fatalf("bare key should be present")
	}
	if _, ok := parts.Value("flag"); ok {
		t.Fatalf("bare key should have no value")
	}
	if parts.Target() != "/calendar/events?month=3&year=2024&month=4&flag&expr=a=b" {
		t.Fatalf("target should round trip, got %q", parts.Target())
	}
}

func TestParseBareKeyThenValue(t *testing.T) {
	parts := Parse("/x?debug&debug=1")
	if value, ok := parts.Value("debug"); !ok || value != "1" {
		t.Fatalf("later assignment should win, got %q %v", value, ok)
	}
}

func TestParseSkipsEmptySegments(t *testing.T) {
	parts := Parse("/x?&a=1&&")
	if len(parts.Pairs) != 1 || parts.Pairs["a"] != "1" {
		t.Fatalf("unexpected pairs %v", parts.Pairs)
	}
	if parts.Query != "?&a=1&&" {
		t.Fatalf("raw query must be preserved, got %q", parts.Query)
	}
}

func TestPartsName(t *testing.T) {
	if name := Parse("/calendar/events?x=1").Name(); name != "calendar/events" {
		t.Fatalf("unexpected service name %q", name)
	}
	if !Parse("/docs/").DirectoryIndex() {
		t.Fatalf("trailing separator should address a directory")
	}
}
