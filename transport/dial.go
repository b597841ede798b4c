package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"

	"golang.org/x/net/websocket"
)

// DialOptions configures Dial's scheme handling.
type DialOptions struct {
	TLSConfig *tls.Config

	// DialContext overrides plain TCP dialing (tcp://, mqtt://, and the
	// TCP connection under ws://).
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)
}

// DialOption mutates DialOptions.
type DialOption func(*DialOptions)

// WithTLSConfig sets the TLS configuration used for tls://, ssl:// and
// mqtts:// schemes, and for the TLS handshake behind wss://.
func WithTLSConfig(cfg *tls.Config) DialOption {
	return func(o *DialOptions) { o.TLSConfig = cfg }
}

// WithDialContext overrides the dialer used for unencrypted TCP.
func WithDialContext(f func(ctx context.Context, network, addr string) (net.Conn, error)) DialOption {
	return func(o *DialOptions) { o.DialContext = f }
}

// Dial connects to rawURL and returns a Transport. Recognised schemes:
// tcp/mqtt (plain TCP), tls/ssl/mqtts (TLS), ws/wss (WebSocket, binary
// subprotocol "mqtt").
func Dial(ctx context.Context, rawURL string, opts ...DialOption) (Transport, error) {
	o := &DialOptions{}
	for _, opt := range opts {
		opt(o)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("transport: parse %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "tcp", "mqtt", "":
		dial := o.DialContext
		if dial == nil {
			dial = (&net.Dialer{}).DialContext
		}
		c, err := dial(ctx, "tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewNetConn(c), nil

	case "tls", "ssl", "mqtts":
		dialer := tls.Dialer{Config: o.TLSConfig}
		c, err := dialer.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewNetConn(c), nil

	case "ws", "wss":
		path := u.Path
		if path == "" {
			path = "/mqtt"
		}
		loc := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: path}
		originScheme := "http"
		if u.Scheme == "wss" {
			originScheme = "https"
		}
		origin := &url.URL{Scheme: originScheme, Host: u.Host}

		cfg, err := websocket.NewConfig(loc.String(), origin.String())
		if err != nil {
			return nil, err
		}
		cfg.Protocol = []string{"mqtt"}

		var conn net.Conn
		if u.Scheme == "wss" {
			dialer := tls.Dialer{Config: o.TLSConfig}
			conn, err = dialer.DialContext(ctx, "tcp", u.Host)
		} else {
			dial := o.DialContext
			if dial == nil {
				dial = (&net.Dialer{}).DialContext
			}
			conn, err = dial(ctx, "tcp", u.Host)
		}
		if err != nil {
			return nil, err
		}

		ws, err := websocket.NewClient(cfg, conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		ws.PayloadType = websocket.BinaryFrame
		return NewNetConn(ws), nil

	default:
		return nil, fmt.Errorf("transport: unsupported scheme %q", u.Scheme)
	}
}
