package service

import "net"

// Config provides the configuration to start a Debugger and expose it with a
// service.
type Config struct {
	// Listener is used to serve requests.
	Listener net.Listener
	// Program is the path of the program to load before the first client
	// request. Clients may load a different one.
	Program string

	// AcceptMulti configures the JSON-RPC server to accept multiple
	// connection. Only one client at a time is served, clients connecting
	// later wait for the previous one to disconnect.
	AcceptMulti bool

	// DisconnectChan will be closed by the server when the client disconnects
	DisconnectChan chan<- struct{}
}
