// Package discovery implements the offer beacon (server) and the offer
// listener (client).
package discovery

import (
	"fmt"
	"net"
	"strconv"
)

// Endpoint is a server discovered in one cycle. It is read-only once
// returned and may be shared by every transfer of that cycle.
type Endpoint struct {
	IP           net.IP
	DatagramPort uint16
	StreamPort   uint16
}

// StreamAddr is the host:port for stream connections.
func (e Endpoint) StreamAddr() string {
	return net.JoinHostPort(e.IP.String(), strconv.Itoa(int(e.StreamPort)))
}

// DatagramAddr is the UDP address datagram requests are sent to.
func (e Endpoint) DatagramAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: e.IP, Port: int(e.DatagramPort)}
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s (UDP %d, TCP %d)", e.IP, e.DatagramPort, e.StreamPort)
}
