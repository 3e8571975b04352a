package irc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"
)

const (
	TransportTCP       = "tcp"
	TransportTLS       = "tls"
	TransportWebSocket = "websocket"

	DefaultTCPAddress       = "irc.chat.twitch.tv:6667"
	DefaultTLSAddress       = "irc.chat.twitch.tv:6697"
	DefaultWebSocketAddress = "wss://irc-ws.chat.twitch.tv:443"
)

var ErrUnknownTransport = errors.New("unknown transport")

// Dialer opens the byte stream the client speaks IRC over.
type Dialer interface {
	Dial(ctx context.Context) (io.ReadWriteCloser, error)
}

type DialerFunc func(ctx context.Context) (io.ReadWriteCloser, error)

func (f DialerFunc) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	return f(ctx)
}

type netDialContext func(ctx context.Context, network, addr string) (net.Conn, error)

// NewDialer builds a dialer for transport. proxyAddr is a host:port of a
// SOCKS5 proxy, empty for a direct connection.
func NewDialer(transport, address, proxyAddr string) (Dialer, error) {
	dial, err := baseDialer(proxyAddr)
	if err != nil {
		return nil, err
	}

	switch transport {
	case "", TransportTCP:
		if address == "" {
			address = DefaultTCPAddress
		}
		return tcpDialer(dial, address), nil
	case TransportTLS:
		if address == "" {
			address = DefaultTLSAddress
		}
		return tlsDialer(dial, address), nil
	case TransportWebSocket:
		if address == "" {
			address = DefaultWebSocketAddress
		}
		return wsDialer(dial, address), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, transport)
}

func baseDialer(proxyAddr string) (netDialContext, error) {
	direct := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	if proxyAddr == "" {
		return direct.DialContext, nil
	}

	d, err := proxy.SOCKS5("tcp", proxyAddr, nil, direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return func(_ context.Context, network, addr string) (net.Conn, error) {
			return d.Dial(network, addr)
		}, nil
	}

	return cd.DialContext, nil
}

func tcpDialer(dial netDialContext, address string) Dialer {
	return DialerFunc(func(ctx context.Context) (io.ReadWriteCloser, error) {
		return dial(ctx, "tcp", address)
	})
}

func tlsDialer(dial netDialContext, address string) Dialer {
	return DialerFunc(func(ctx context.Context) (io.ReadWriteCloser, error) {
		raw, err := dial(ctx, "tcp", address)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(address)
		if err != nil {
			_ = raw.Close()
			return nil, err
		}

		conn := tls.Client(raw, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
		if err := conn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("tls handshake: %w", err)
		}
		return conn, nil
	})
}

func wsDialer(dial netDialContext, address string) Dialer {
	return DialerFunc(func(ctx context.Context) (io.ReadWriteCloser, error) {
		dialer := websocket.Dialer{
			NetDialContext:   dial,
			HandshakeTimeout: 10 * time.Second,
			TLSClientConfig:  &tls.Config{MinVersion: tls.VersionTLS12},
		}

		ws, resp, err := dialer.DialContext(ctx, address, http.Header{})
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			return nil, fmt.Errorf("websocket dial: %w", err)
		}

		return &wsConn{ws: ws}, nil
	})
}

// wsConn turns a websocket into a byte stream. Each write becomes one text frame.
type wsConn struct {
	ws     *websocket.Conn
	reader io.Reader
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			c.reader = r
		}

		n, err := c.reader.Read(p)
		if errors.Is(err, io.EOF) {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}

func (c *wsConn) Close() error {
	_ = c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.ws.Close()
}
