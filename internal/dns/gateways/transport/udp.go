// Package transport provides the two UDP endpoints the relay runs on: a
// client-facing listener and a single upstream-facing channel. It handles
// socket binding and datagram I/O only; all protocol decisions live in the
// service layer.
package transport

import (
	"fmt"
	"net"

	"github.com/haukened/rr-relay/internal/dns/common/log"
)

// maxDatagramSize is the classic DNS-over-UDP payload limit (RFC 1035 §2.3.4).
const maxDatagramSize = 512

// ClientEndpoint is the client-facing UDP listener. Failure to bind it is the
// only fatal startup condition together with the upstream endpoint.
type ClientEndpoint struct {
	conn   *net.UDPConn
	logger log.Logger
}

// NewClientEndpoint binds a UDP listener on addr.
func NewClientEndpoint(addr string, logger log.Logger) (*ClientEndpoint, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve listen address %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP socket on %s: %w", addr, err)
	}
	logger.Info(map[string]any{
		"transport": "udp",
		"address":   conn.LocalAddr().String(),
	}, "Client endpoint listening")
	return &ClientEndpoint{conn: conn, logger: logger}, nil
}

// Receive blocks for the next client datagram and returns a copy of its
// payload together with the source address.
func (e *ClientEndpoint) Receive() ([]byte, *net.UDPAddr, error) {
	buf := make([]byte, maxDatagramSize)
	n, addr, err := e.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, err
	}
	return buf[:n], addr, nil
}

// Send transmits a datagram to the given client address.
func (e *ClientEndpoint) Send(data []byte, addr *net.UDPAddr) error {
	_, err := e.conn.WriteToUDP(data, addr)
	return err
}

// Address returns the bound listen address.
func (e *ClientEndpoint) Address() string {
	return e.conn.LocalAddr().String()
}

// Close shuts the socket down, unblocking any pending Receive.
func (e *ClientEndpoint) Close() error {
	return e.conn.Close()
}

// UpstreamEndpoint is the single upstream-facing UDP channel. All forwarded
// queries leave through this one socket and all upstream replies arrive on it,
// which is why transaction IDs must be rewritten before sending.
type UpstreamEndpoint struct {
	conn     *net.UDPConn
	upstream *net.UDPAddr
	logger   log.Logger
}

// NewUpstreamEndpoint binds a UDP socket on bindAddr and records the upstream
// resolver address that all forwarded traffic is exchanged with.
func NewUpstreamEndpoint(bindAddr, upstreamAddr string, logger log.Logger) (*UpstreamEndpoint, error) {
	local, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upstream bind address %s: %w", bindAddr, err)
	}
	upstream, err := net.ResolveUDPAddr("udp", upstreamAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upstream address %s: %w", upstreamAddr, err)
	}
	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, fmt.Errorf("failed to bind upstream socket on %s: %w", bindAddr, err)
	}
	logger.Info(map[string]any{
		"transport": "udp",
		"address":   conn.LocalAddr().String(),
		"upstream":  upstream.String(),
	}, "Upstream endpoint ready")
	return &UpstreamEndpoint{conn: conn, upstream: upstream, logger: logger}, nil
}

// Send forwards a datagram to the configured upstream resolver.
func (e *UpstreamEndpoint) Send(data []byte) error {
	_, err := e.conn.WriteToUDP(data, e.upstream)
	return err
}

// Receive blocks for the next upstream datagram. Datagrams arriving from any
// source other than the configured upstream are dropped here; the transaction
// table gives a second layer of protection against spoofed replies.
func (e *UpstreamEndpoint) Receive() ([]byte, error) {
	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			return nil, err
		}
		if !addr.IP.Equal(e.upstream.IP) || addr.Port != e.upstream.Port {
			e.logger.Debug(map[string]any{
				"source":   addr.String(),
				"upstream": e.upstream.String(),
				"size":     n,
			}, "Dropping datagram from unexpected source")
			continue
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		return out, nil
	}
}

// Address returns the locally bound address of the upstream channel.
func (e *UpstreamEndpoint) Address() string {
	return e.conn.LocalAddr().String()
}

// Close shuts the socket down, unblocking any pending Receive.
func (e *UpstreamEndpoint) Close() error {
	return e.conn.Close()
}
