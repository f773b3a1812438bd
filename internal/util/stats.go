package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

var statsLog = Scope("stats")

// Stats is the process-wide server counter set.
var Stats = &stats{}

type stats struct {
	StreamConns     atomic.Int64 // accepted stream connections
	StreamsDone     atomic.Int64 // stream transfers that sent every byte
	DatagramReqs    atomic.Int64 // valid datagram requests
	Rejected        atomic.Int64 // malformed or foreign datagrams
	StreamBytes     atomic.Int64 // bytes written on stream connections
	DatagramBytes   atomic.Int64 // payload bytes sent in segments
	SegmentsSent    atomic.Int64
	OffersBroadcast atomic.Int64
}

func (s *stats) AddStreamConn()       { s.StreamConns.Add(1) }
func (s *stats) AddStreamDone()       { s.StreamsDone.Add(1) }
func (s *stats) AddDatagramReq()      { s.DatagramReqs.Add(1) }
func (s *stats) AddRejected()         { s.Rejected.Add(1) }
func (s *stats) AddStreamBytes(n int) { s.StreamBytes.Add(int64(n)) }
func (s *stats) AddOffer()            { s.OffersBroadcast.Add(1) }

// AddSegment records one payload segment carrying n data bytes.
func (s *stats) AddSegment(n int) {
	s.SegmentsSent.Add(1)
	s.DatagramBytes.Add(int64(n))
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Time            time.Time `json:"time"`
	StreamConns     int64     `json:"streamConns"`
	StreamsDone     int64     `json:"streamsDone"`
	DatagramReqs    int64     `json:"datagramReqs"`
	Rejected        int64     `json:"rejected"`
	StreamBytes     int64     `json:"streamBytes"`
	DatagramBytes   int64     `json:"datagramBytes"`
	SegmentsSent    int64     `json:"segmentsSent"`
	OffersBroadcast int64     `json:"offersBroadcast"`
}

// Snapshot reads every counter. Counters are read independently, so the
// result is not an atomic view across fields.
func (s *stats) Snapshot() Snapshot {
	return Snapshot{
		Time:            time.Now(),
		StreamConns:     s.StreamConns.Load(),
		StreamsDone:     s.StreamsDone.Load(),
		DatagramReqs:    s.DatagramReqs.Load(),
		Rejected:        s.Rejected.Load(),
		StreamBytes:     s.StreamBytes.Load(),
		DatagramBytes:   s.DatagramBytes.Load(),
		SegmentsSent:    s.SegmentsSent.Load(),
		OffersBroadcast: s.OffersBroadcast.Load(),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs server throughput every
// interval while there is traffic. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		prev := Stats.Snapshot()
		for {
			select {
			case <-ticker.C:
				cur := Stats.Snapshot()
				secs := cur.Time.Sub(prev.Time).Seconds()

				tcpS := float64(cur.StreamBytes-prev.StreamBytes) / secs
				udpS := float64(cur.DatagramBytes-prev.DatagramBytes) / secs
				newConns := cur.StreamConns - prev.StreamConns
				newReqs := cur.DatagramReqs - prev.DatagramReqs

				if newConns > 0 || newReqs > 0 || tcpS > 10 || udpS > 10 {
					statsLog.Info("%s", formatStats(tcpS, udpS, newConns, newReqs))
				}
				prev = cur

			case <-ctx.Done():
				return
			}
		}
	}()
}

// formatStats returns a formatted string of the interval stats for display in the logger.
func formatStats(tcpS, udpS float64, conns, reqs int64) string {
	return fmt.Sprintf("TCP: %s/s | UDP: %s/s | New: %2d conn %2d req",
		FormatBytes(tcpS),
		FormatBytes(udpS),
		conns,
		reqs,
	)
}
