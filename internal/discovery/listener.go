package discovery

import (
	"context"
	"errors"
	"net"

	"github.com/1ureka/lanspeed/internal/netutil"
	"github.com/1ureka/lanspeed/internal/protocol"
	"github.com/1ureka/lanspeed/internal/util"
)

var log = util.Scope("discovery")

// Listener receives offers on the well-known offer port.
type Listener struct {
	conn *net.UDPConn
}

// Listen binds the offer port. Port 0 binds an ephemeral port.
func Listen(ctx context.Context, port int) (*Listener, error) {
	conn, err := netutil.ListenShared(ctx, port)
	if err != nil {
		return nil, err
	}
	return &Listener{conn: conn}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() *net.UDPAddr {
	return l.conn.LocalAddr().(*net.UDPAddr)
}

// Close releases the socket.
func (l *Listener) Close() error {
	return l.conn.Close()
}

// Next blocks until a valid offer arrives and returns the advertised
// endpoint. Malformed or foreign datagrams are discarded.
func (l *Listener) Next(ctx context.Context) (Endpoint, error) {
	// Unblock ReadFromUDP when the caller gives up.
	stop := context.AfterFunc(ctx, func() { l.conn.Close() })
	defer stop()

	buf := make([]byte, protocol.BufferSize)
	for {
		n, from, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return Endpoint{}, ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return Endpoint{}, err
			}
			log.Warn("read failed: %v", err)
			continue
		}

		offer, err := protocol.DecodeOffer(buf[:n])
		if err != nil {
			log.Debug("ignoring %d bytes from %s: %v", n, from, err)
			continue
		}

		return Endpoint{
			IP:           from.IP,
			DatagramPort: offer.DatagramPort,
			StreamPort:   offer.StreamPort,
		}, nil
	}
}

// Discover runs one discovery cycle on port: listen, take the first valid
// offer, close.
func Discover(ctx context.Context, port int) (Endpoint, error) {
	l, err := Listen(ctx, port)
	if err != nil {
		return Endpoint{}, err
	}
	defer l.Close()
	return l.Next(ctx)
}
