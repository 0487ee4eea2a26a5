// Package domain defines the flatline MCP tools and resources.
//
// Every handler talks to the game server through GameClient, so tools carry
// no game rules of their own: a refused action comes back as a structured
// result with Success=false, and only transport failures become tool errors.
package domain
