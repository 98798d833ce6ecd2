// Package server hosts the Fiber HTTP service and wires the dispatch pipeline
// from the loaded configuration. NewRuntime builds the registries, origin
// forwarder and dispatcher once at startup and freezes them; NewApp attaches
// request ids, panic recovery and the catch-all dispatch route. Diagnostics
// endpoints live in the routes subpackage so they can be left out entirely.
package server
