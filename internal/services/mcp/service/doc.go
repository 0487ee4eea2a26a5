// Package service hosts the flatline MCP server: it dials the game server,
// registers the tools and resources from package domain and serves them over
// stdio or streamable HTTP.
package service
