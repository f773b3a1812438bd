// Package transfer implements the stream (TCP) and datagram (UDP) bulk
// transfer engines on both the serving and the measuring side.
package transfer

import (
	"fmt"
	"time"

	"github.com/1ureka/lanspeed/internal/util"
)

// Kind identifies the channel a transfer runs over.
type Kind string

const (
	KindStream   Kind = "TCP"
	KindDatagram Kind = "UDP"
)

// Result is the measurement of one transfer. It is owned by the goroutine
// running the transfer until returned.
type Result struct {
	Kind Kind
	ID   int    // display sequence number within the cycle
	Size uint64 // requested bytes

	Start   time.Time
	End     time.Time
	Elapsed time.Duration // measured transfer time

	Bytes    uint64 // bytes (stream) or payload bytes (datagram) received
	Segments uint64 // valid payload segments received (datagram only)
	Lost     uint64 // inactivity ticks counted as lost (datagram only)

	Err error // transport fault; metrics are partial when set
}

// Throughput returns Size*8/Elapsed in bits per second, or 0 when no time
// was measured.
func (r Result) Throughput() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Size) * 8 / secs
}

// SuccessRate returns Segments/(Segments+Lost)*100, or 0 when both are 0.
// Lost counts timeout ticks rather than missing segments, so this is an
// approximation of delivery quality.
func (r Result) SuccessRate() float64 {
	total := r.Segments + r.Lost
	if total == 0 {
		return 0
	}
	return float64(r.Segments) / float64(total) * 100
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("[%s] Transfer #%d failed: %v", r.Kind, r.ID, r.Err)
	}
	s := fmt.Sprintf("[%s] Transfer #%d finished: %.4fs, %s",
		r.Kind, r.ID, r.Elapsed.Seconds(), util.FormatBits(r.Throughput()))
	if r.Kind == KindDatagram {
		s += fmt.Sprintf(", Success Rate: %.4f%%", r.SuccessRate())
	}
	return s
}
