package transfer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/1ureka/lanspeed/internal/netutil"
	"github.com/1ureka/lanspeed/internal/protocol"
	"github.com/1ureka/lanspeed/internal/util"
)

var udpLog = util.Scope("UDP")

// recvBufferSize enlarges the client socket's kernel buffer so bursts of
// segments are not dropped locally.
const recvBufferSize = 4 << 20

// sendFunc answers one accepted request; tests replace it.
var sendFunc = sendSegments

// ---------------------------------------------------------------------------
// Server side
// ---------------------------------------------------------------------------

// ServeDatagrams reads requests from conn until ctx is cancelled or conn is
// closed. Each valid request is answered with its payload segments, either
// inline (opts.Serial) or on a goroutine of its own. It waits for in-flight
// senders before returning.
func ServeDatagrams(ctx context.Context, conn *net.UDPConn, opts Options) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	buf := make([]byte, opts.BufferSize)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			udpLog.Warn("read failed: %v", err)
			continue
		}

		req, err := protocol.DecodeRequest(buf[:n])
		if err != nil {
			util.Stats.AddRejected()
			udpLog.Debug("ignoring %d bytes from %s: %v", n, from, err)
			continue
		}

		count, err := protocol.SegmentCount(req.FileSize, opts.SegmentCapacity)
		if err != nil {
			util.Stats.AddRejected()
			udpLog.Warn("rejecting request from %s: %v", from, err)
			continue
		}

		util.Stats.AddDatagramReq()
		udpLog.Info("%s requested %d bytes (%d segments)", from, req.FileSize, count)

		task := fmt.Sprintf("reply to %s", from)
		send := func() {
			sendFunc(ctx, conn, from, req.FileSize, count, opts.SegmentCapacity)
		}
		if opts.Serial {
			udpLog.Guard(task, send)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			udpLog.Guard(task, send)
		}()
	}
}

// sendSegments writes count payload segments to to, in increasing index
// order, with no acknowledgement or retransmission.
func sendSegments(ctx context.Context, conn *net.UDPConn, to *net.UDPAddr, size uint64, count uint32, capacity int) {
	buf := make([]byte, protocol.PayloadHeaderSize+capacity)
	for i := protocol.PayloadHeaderSize; i < len(buf); i++ {
		buf[i] = 'X'
	}

	for idx := uint32(0); idx < count; idx++ {
		if ctx.Err() != nil {
			return
		}

		n := protocol.SegmentLen(size, capacity, idx)
		protocol.PutPayloadHeader(buf, count, idx)
		if _, err := conn.WriteToUDP(buf[:protocol.PayloadHeaderSize+n], to); err != nil {
			udpLog.Error("send to %s failed at segment %d/%d: %v", to, idx, count, err)
			return
		}
		util.Stats.AddSegment(n)
		udpLog.Debug("sent segment %d/%d to %s", idx+1, count, to)
	}

	udpLog.Success("sent %d bytes to %s", size, to)
}

// ---------------------------------------------------------------------------
// Client side
// ---------------------------------------------------------------------------

// RunDatagram performs one measured datagram transfer against server from a
// socket dedicated to it. The transfer is considered over once no valid
// segment has arrived for longer than opts.IdleTimeout, so anything the
// server sends after such a gap is not counted.
func RunDatagram(ctx context.Context, server *net.UDPAddr, size uint64, id int, opts Options) Result {
	res := Result{Kind: KindDatagram, ID: id, Size: size}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		res.Err = fmt.Errorf("open socket: %w", err)
		return res
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.SetReadBuffer(recvBufferSize); err != nil {
		udpLog.Debug("#%d: failed to enlarge receive buffer: %v", id, err)
	}
	if err := netutil.SetPacketDSCP(conn, opts.DSCP); err != nil {
		udpLog.Debug("#%d: failed to set DSCP: %v", id, err)
	}

	req := protocol.EncodeRequest(protocol.Request{FileSize: size})
	if _, err := conn.WriteToUDP(req, server); err != nil {
		res.Err = fmt.Errorf("send request: %w", err)
		return res
	}
	res.Start = time.Now()
	last := res.Start

	buf := make([]byte, opts.BufferSize)
	for {
		conn.SetReadDeadline(time.Now().Add(opts.IdleTimeout))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// The deadline is re-armed after every read, so a timeout
				// almost always means IdleTimeout has passed since the last
				// valid segment. Lost only moves when the clock lands on the
				// boundary; dropped segments show up as Bytes < Size.
				if time.Since(last) > opts.IdleTimeout {
					break
				}
				res.Lost++
				continue
			}
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			res.Err = fmt.Errorf("receive: %w", err)
			break
		}

		p, err := protocol.DecodePayload(buf[:n])
		if err != nil {
			udpLog.Debug("#%d: ignoring %d bytes: %v", id, n, err)
			continue
		}
		res.Segments++
		res.Bytes += uint64(len(p.Data))
		last = time.Now()
	}

	res.End = time.Now()
	// Exclude the trailing wait that detected the end of the stream.
	res.Elapsed = max(res.End.Sub(res.Start)-opts.IdleTimeout, 0)
	return res
}
