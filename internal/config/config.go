// Package config holds the runtime configuration shared by server and client.
package config

import (
	"fmt"
	"net"
	"time"

	"github.com/1ureka/lanspeed/internal/protocol"
)

// Role represents the user's chosen role (server or client).
type Role string

const (
	RoleServer Role = "server"
	RoleClient Role = "client"
)

// Well-known ports. They must match across implementations.
const (
	OfferPort    = 13117 // UDP, client listens for offers
	DatagramPort = 13118 // UDP, server listens for requests
	StreamPort   = 13119 // TCP, server accepts connections
)

// Protocol timing defaults.
const (
	DefaultBeaconInterval = 10 * time.Second
	DefaultIdleTimeout    = 1 * time.Second
	DefaultStatsInterval  = 10 * time.Second
)

// Config is built once at startup and passed by value; nothing mutates it
// afterwards, so every goroutine may read it freely.
type Config struct {
	// Role selects the run mode; empty means the operator is asked.
	Role Role

	OfferPort    int // 0 picks an ephemeral port (tests)
	DatagramPort int
	StreamPort   int

	// BroadcastAddr is where the beacon sends offers.
	BroadcastAddr string

	BeaconInterval time.Duration
	IdleTimeout    time.Duration // datagram inactivity timeout
	StatsInterval  time.Duration

	BufferSize      int // datagram buffer and stream chunk size
	SegmentCapacity int

	// DSCP marks outgoing transfer traffic; 0 leaves the OS default.
	DSCP int

	// SerialDatagrams services datagram requests one at a time on the
	// listener goroutine instead of one goroutine per request.
	SerialDatagrams bool

	// MonitorAddr enables the WebSocket statistics feed when non-empty.
	MonitorAddr string
}

// Default returns the configuration used by interoperable deployments.
func Default() Config {
	return Config{
		OfferPort:       OfferPort,
		DatagramPort:    DatagramPort,
		StreamPort:      StreamPort,
		BroadcastAddr:   fmt.Sprintf("255.255.255.255:%d", OfferPort),
		BeaconInterval:  DefaultBeaconInterval,
		IdleTimeout:     DefaultIdleTimeout,
		StatsInterval:   DefaultStatsInterval,
		BufferSize:      protocol.BufferSize,
		SegmentCapacity: protocol.SegmentCapacity,
	}
}

// Validate reports the first inconsistent field.
func (c Config) Validate() error {
	switch c.Role {
	case "", RoleServer, RoleClient:
	default:
		return fmt.Errorf("invalid role %q: must be 'server' or 'client'", c.Role)
	}
	for name, port := range map[string]int{
		"offer":    c.OfferPort,
		"datagram": c.DatagramPort,
		"stream":   c.StreamPort,
	} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid %s port %d: must be 0 ~ 65535", name, port)
		}
	}
	if _, err := net.ResolveUDPAddr("udp4", c.BroadcastAddr); err != nil {
		return fmt.Errorf("invalid broadcast address %q: %w", c.BroadcastAddr, err)
	}
	if c.BeaconInterval <= 0 || c.IdleTimeout <= 0 {
		return fmt.Errorf("beacon interval and idle timeout must be positive")
	}
	if c.SegmentCapacity <= 0 || c.SegmentCapacity+protocol.PayloadHeaderSize > c.BufferSize {
		return fmt.Errorf("segment capacity %d does not fit buffer size %d", c.SegmentCapacity, c.BufferSize)
	}
	if c.DSCP < 0 || c.DSCP > 63 {
		return fmt.Errorf("invalid DSCP %d: must be 0 ~ 63", c.DSCP)
	}
	return nil
}
