// Package http serves the flatline engine as a JSON API with a websocket
// log stream.
//
// Routes:
//
//	GET  /healthz
//	GET  /api/state
//	GET  /api/logs?filter=&limit=
//	POST /api/login
//	POST /api/actions/{action}
//	GET  /api/profile
//	PUT  /api/profile
//	GET  /ws/logs
//
// When a session key is configured, action, profile and websocket routes
// require the bearer token issued by /api/login.
package http
