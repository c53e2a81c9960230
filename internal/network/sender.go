package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsmtap"
	"gsm-decoder/pkg/types"
)

// UDPClient sends GSMTAP datagrams to a decoder or monitor.
type UDPClient struct {
	conn   *net.UDPConn
	target *net.UDPAddr
	mu     sync.Mutex
}

// NewUDPClient creates a client bound to localAddr:localPort and targeting
// targetAddr:targetPort. An empty local address and port 0 pick any.
func NewUDPClient(localAddr string, localPort int, targetAddr string, targetPort int) (*UDPClient, error) {
	local := &net.UDPAddr{
		IP:   net.ParseIP(localAddr),
		Port: localPort,
	}

	remote := &net.UDPAddr{
		IP:   net.ParseIP(targetAddr),
		Port: targetPort,
	}
	if remote.IP == nil {
		return nil, fmt.Errorf("invalid target address %q", targetAddr)
	}

	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP to %s:%d: %w", localAddr, localPort, err)
	}

	return &UDPClient{
		conn:   conn,
		target: remote,
	}, nil
}

// Send transmits data to the target.
func (c *UDPClient) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.conn.WriteToUDP(data, c.target)
	if err != nil {
		return fmt.Errorf("failed to send to %s: %w", c.target, err)
	}
	return nil
}

// Replay sends the payloads of packets that carry a GSMTAP header, in
// order, waiting interval between two sends. It returns how many were sent.
func (c *UDPClient) Replay(ctx context.Context, packets []types.RawPacket, interval time.Duration) (int, error) {
	sent := 0
	for i := range packets {
		pkt := &packets[i]
		if pkt.Key.Transport != types.TransportUDP || !IsGSMTAP(pkt.Payload) {
			continue
		}
		if sent > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return sent, ctx.Err()
			case <-time.After(interval):
			}
		} else if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := c.Send(pkt.Payload); err != nil {
			return sent, err
		}
		sent++
		log.WithFields(log.Fields{
			"packet": pkt.Number,
			"bytes":  len(pkt.Payload),
		}).Debug("Replayed GSMTAP packet")
	}
	return sent, nil
}

// IsGSMTAP reports whether payload starts with a GSMTAP header.
func IsGSMTAP(payload []byte) bool {
	_, ok := gsmtap.Probe(codec.NewCursor(payload))
	return ok
}

// Conn returns the underlying UDP connection.
func (c *UDPClient) Conn() *net.UDPConn {
	return c.conn
}

// Close closes the UDP connection.
func (c *UDPClient) Close() error {
	return c.conn.Close()
}

// LocalAddr returns the local address the client is bound to.
func (c *UDPClient) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}
