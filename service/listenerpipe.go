package service

import (
	"errors"
	"net"
	"sync"
)

// ListenerPipe returns a full-duplex in-memory connection, like net.Pipe.
// One end of the connection is returned as a net.Listener whose first
// Accept returns the other end.
// Any subsequent calls to Accept will block until the listener is closed.
// The terminal uses it to talk to an in-process debugger through the
// JSON-RPC server.
func ListenerPipe() (net.Listener, net.Conn) {
	conn0, conn1 := net.Pipe()
	return &preconnectedListener{conn: conn0, closech: make(chan struct{})}, conn1
}

var errListenerClosed = errors.New("accept failed: listener closed")

type preconnectedListener struct {
	mu       sync.Mutex
	accepted bool
	closed   bool
	conn     net.Conn
	closech  chan struct{}
}

// Accept returns the pre-established connection the first time it's called,
// it blocks until the listener is closed on every subsequent call.
func (l *preconnectedListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, errListenerClosed
	}
	if !l.accepted {
		l.accepted = true
		l.mu.Unlock()
		return l.conn, nil
	}
	l.mu.Unlock()
	<-l.closech
	return nil, errListenerClosed
}

// Close closes the listener, the accepted connection is not closed.
func (l *preconnectedListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.closech)
	return nil
}

// Addr returns the listener's network address.
func (l *preconnectedListener) Addr() net.Addr {
	return l.conn.LocalAddr()
}
