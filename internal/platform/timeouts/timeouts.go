// Package timeouts collects the durations shared by flatline servers and clients.
package timeouts

import "time"

// GRPCDial caps the wait when dialing the game service.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single unary call from the MCP bridge. Actions include
// the simulated resolution delay, so this is looser than a plain read.
const GRPCRequest = 10 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown bounds graceful shutdown of HTTP servers and engine teardown.
const Shutdown = 5 * time.Second

// WebsocketWrite bounds a single websocket frame write to a log subscriber.
const WebsocketWrite = 2 * time.Second
