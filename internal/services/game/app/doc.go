// Package server composes the flatline game server: it opens the snapshot
// store, builds and initializes the engine, and serves the HTTP and gRPC APIs
// until its context ends.
package server
