package transport

import (
	"net"
	"time"
)

// NetConn adapts any net.Conn (plain TCP, or already past a TLS
// handshake) into a Transport by translating each call's timeout into a
// deadline on the underlying connection, the same way the teacher's conn
// type drives its read/write loop deadlines.
type NetConn struct {
	c net.Conn
}

// NewNetConn wraps an established net.Conn.
func NewNetConn(c net.Conn) *NetConn {
	return &NetConn{c: c}
}

func (t *NetConn) Read(buf []byte, timeout time.Duration) (int, error) {
	if err := t.setDeadline(t.c.SetReadDeadline, timeout); err != nil {
		return 0, err
	}
	n, err := t.c.Read(buf)
	if err != nil {
		return n, classifyNetErr(err)
	}
	return n, nil
}

func (t *NetConn) Write(buf []byte, timeout time.Duration) (int, error) {
	if err := t.setDeadline(t.c.SetWriteDeadline, timeout); err != nil {
		return 0, err
	}
	n, err := t.c.Write(buf)
	if err != nil {
		return n, classifyNetErr(err)
	}
	return n, nil
}

func (t *NetConn) Close() error {
	return t.c.Close()
}

// setDeadline matches the Transport contract: timeout == 0 means "don't
// block" (a deadline already in the past), timeout < 0 means "block
// forever" (no deadline), and timeout > 0 sets a deadline that far out.
func (t *NetConn) setDeadline(set func(time.Time) error, timeout time.Duration) error {
	switch {
	case timeout < 0:
		return wrapFault(set(time.Time{}))
	case timeout == 0:
		return wrapFault(set(time.Now()))
	default:
		return wrapFault(set(time.Now().Add(timeout)))
	}
}

func wrapFault(err error) error {
	if err == nil {
		return nil
	}
	return &faultError{cause: err}
}

// classifyNetErr distinguishes a deadline-exceeded read/write — a normal,
// expected outcome of a bounded Read/Write call with nothing ready yet —
// from a genuine transport fault (reset, closed, EOF). Only the latter
// satisfies errors.Is(err, ErrFault).
func classifyNetErr(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return ErrTimeout
	}
	return wrapFault(err)
}

type faultError struct {
	cause error
}

func (e *faultError) Error() string { return "transport: fault: " + e.cause.Error() }
func (e *faultError) Unwrap() error { return e.cause }
func (e *faultError) Is(target error) bool { return target == ErrFault }
