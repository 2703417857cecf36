// Package control serves the player's remote control endpoint.
//
// Controllers connect over a websocket at protocol.Path, say client/hello
// and may then send any command message of package protocol. The server
// pushes server/state to every controller once per StateInterval.
package control
