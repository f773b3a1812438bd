package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/1ureka/lanspeed/internal/netutil"
	"github.com/1ureka/lanspeed/internal/protocol"
	"github.com/1ureka/lanspeed/internal/util"
)

var beaconLog = util.Scope("beacon")

// Beacon periodically broadcasts an offer for the server's endpoints.
// No acknowledgement is expected.
type Beacon struct {
	conn     *net.UDPConn
	target   *net.UDPAddr
	interval time.Duration
	offer    []byte
}

// NewBeacon opens the sending socket. target is usually the broadcast
// address on the offer port.
func NewBeacon(target string, interval time.Duration, offer protocol.Offer, dscp int) (*Beacon, error) {
	addr, err := net.ResolveUDPAddr("udp4", target)
	if err != nil {
		return nil, fmt.Errorf("invalid beacon target %q: %w", target, err)
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open beacon socket: %w", err)
	}
	if err := netutil.SetPacketDSCP(conn, dscp); err != nil {
		beaconLog.Warn("failed to set DSCP: %v", err)
	}

	return &Beacon{
		conn:     conn,
		target:   addr,
		interval: interval,
		offer:    protocol.EncodeOffer(offer),
	}, nil
}

// Run sends one offer immediately and then one per interval until ctx is
// cancelled. Send failures are logged and the loop keeps going.
func (b *Beacon) Run(ctx context.Context) {
	defer b.conn.Close()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		if _, err := b.conn.WriteToUDP(b.offer, b.target); err != nil {
			beaconLog.Warn("broadcast to %s failed: %v", b.target, err)
		} else {
			util.Stats.AddOffer()
			beaconLog.Debug("offer sent to %s", b.target)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
