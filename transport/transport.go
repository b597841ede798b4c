// Package transport abstracts the byte stream the protocol engine reads
// and writes MQTT control packets over. The engine never touches a
// net.Conn directly; it only ever sees a Transport, so it compiles
// unchanged against a TCP socket, a TLS session, a WebSocket, or — in
// tests — an in-memory pipe.
package transport

import (
	"errors"
	"time"
)

// ErrFault is returned (wrapped) by Read/Write when the underlying stream
// is broken: closed, reset, or otherwise unable to make progress. The
// Engine treats any such error as connection-lost, matching the
// "negative return signals a transport fault" contract of spec.md §4.B.
var ErrFault = errors.New("transport: fault")

// ErrTimeout is returned (wrapped) when a Read or Write's timeout elapses
// with no progress made. Unlike ErrFault this is an expected, recoverable
// outcome — the stream is still healthy, there was simply nothing to
// read or no room to write within the requested window.
var ErrTimeout = errors.New("transport: timeout")

// Transport is an abstract, bounded byte stream. Short reads and short
// writes are legal; callers (the Engine) loop for exact counts.
type Transport interface {
	// Read blocks up to timeout for at least one byte, returning the
	// number of bytes placed in buf (0 <= n <= len(buf)). A zero timeout
	// means "don't block"; a negative timeout is treated as unbounded.
	Read(buf []byte, timeout time.Duration) (n int, err error)

	// Write blocks up to timeout, returning the number of bytes accepted.
	Write(buf []byte, timeout time.Duration) (n int, err error)

	// Close releases the underlying stream. Read/Write after Close must
	// return ErrFault.
	Close() error
}
