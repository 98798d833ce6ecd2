// Package dispatch decides, per request, whether a local service, a file under
// the web root or the origin answers it, and writes the single resulting reply.
//
// The order is a strict priority chain: a registered service wins over a
// same-named file, a file wins over the origin. Lifecycle hooks run before the
// path is rewritten and before the reply is written.
package dispatch
