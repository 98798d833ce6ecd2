// Package route turns a raw request target into dispatch inputs: the redirect
// rules rewrite path prefixes first, then Parse splits the rewritten target
// into route, raw query and query pairs. Both are pure and safe for
// concurrent use once built.
package route
