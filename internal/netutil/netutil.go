// Package netutil configures the sockets used by discovery and transfers.
package netutil

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// ListenShared binds a UDP socket on port with SO_REUSEADDR set.
func ListenShared(ctx context.Context, port int) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	pc, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on udp port %d: %w", port, err)
	}
	return pc.(*net.UDPConn), nil
}

// SetDSCP marks outgoing IPv4 traffic on conn with the given DSCP value.
// A zero value leaves the OS default untouched. NOTE: Windows ignores it.
func SetDSCP(conn net.Conn, dscp int) error {
	if dscp == 0 {
		return nil
	}
	return ipv4.NewConn(conn).SetTOS(dscp << 2)
}

// SetPacketDSCP is SetDSCP for unconnected datagram sockets.
func SetPacketDSCP(conn net.PacketConn, dscp int) error {
	if dscp == 0 {
		return nil
	}
	return ipv4.NewPacketConn(conn).SetTOS(dscp << 2)
}
