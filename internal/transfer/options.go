package transfer

import (
	"time"

	"github.com/1ureka/lanspeed/internal/config"
)

// Options are the transfer parameters taken from the process configuration.
type Options struct {
	BufferSize      int
	SegmentCapacity int
	IdleTimeout     time.Duration
	DSCP            int
	Serial          bool // serve datagram requests one at a time
}

// OptionsFrom extracts transfer options from cfg.
func OptionsFrom(cfg config.Config) Options {
	return Options{
		BufferSize:      cfg.BufferSize,
		SegmentCapacity: cfg.SegmentCapacity,
		IdleTimeout:     cfg.IdleTimeout,
		DSCP:            cfg.DSCP,
		Serial:          cfg.SerialDatagrams,
	}
}
