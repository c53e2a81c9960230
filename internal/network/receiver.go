package network

import (
	"context"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"gsm-decoder/pkg/types"
)

// Receiver listens for GSMTAP datagrams sent by a radio front end. Every
// datagram becomes a RawPacket keyed by its sender, so each sender address
// is one flow.
type Receiver struct {
	conn    *net.UDPConn
	local   *net.UDPAddr
	pktChan chan types.RawPacket
	count   uint64
}

// Listen binds a UDP socket on addr:port and wraps it in a Receiver.
func Listen(addr string, port int) (*Receiver, error) {
	localAddr := &net.UDPAddr{
		IP:   net.ParseIP(addr),
		Port: port,
	}
	conn, err := net.ListenUDP("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP to %s:%d: %w", addr, port, err)
	}
	return NewReceiver(conn), nil
}

// NewReceiver creates a receiver reading from conn.
func NewReceiver(conn *net.UDPConn) *Receiver {
	local, _ := conn.LocalAddr().(*net.UDPAddr)
	return &Receiver{
		conn:    conn,
		local:   local,
		pktChan: make(chan types.RawPacket, 1000),
	}
}

// Start begins reading datagrams in a goroutine. The socket is closed when
// ctx is cancelled, which also closes the Packets channel.
func (r *Receiver) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()
	go r.listen(ctx)
}

// Packets returns the channel of received datagrams.
func (r *Receiver) Packets() <-chan types.RawPacket {
	return r.pktChan
}

// LocalAddr returns the address the receiver is bound to.
func (r *Receiver) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

// Close closes the socket.
func (r *Receiver) Close() error {
	return r.conn.Close()
}

func (r *Receiver) listen(ctx context.Context) {
	defer close(r.pktChan)

	buf := make([]byte, 65535)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, addr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return // Context cancelled, normal shutdown
			}
			log.WithError(err).Warn("Error reading from UDP")
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		r.count++

		pkt := types.RawPacket{
			Number:    r.count,
			Timestamp: time.Now(),
			Key:       r.key(addr),
			Payload:   data,
		}

		select {
		case r.pktChan <- pkt:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Receiver) key(from *net.UDPAddr) types.FlowKey {
	var localIP net.IP
	var localPort uint16
	if r.local != nil {
		localIP, localPort = r.local.IP, uint16(r.local.Port)
	}
	return types.NewFlowKey(0, from.IP, localIP, uint16(from.Port), localPort, types.TransportUDP)
}
