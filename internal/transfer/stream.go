package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/1ureka/lanspeed/internal/netutil"
	"github.com/1ureka/lanspeed/internal/util"
)

var tcpLog = util.Scope("TCP")

// sizeSettle is how long the server waits for further chunks of an
// unterminated size string after the first bytes arrive.
const sizeSettle = 25 * time.Millisecond

// ServeStream handles one accepted stream connection: it reads the decimal
// byte count, writes that many filler bytes in BufferSize chunks, then
// closes the connection.
func ServeStream(ctx context.Context, conn net.Conn, opts Options) error {
	bufSize := opts.BufferSize
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	size, err := readSize(conn, bufSize)
	if err != nil {
		return fmt.Errorf("read size: %w", err)
	}
	tcpLog.Debug("%s requested %d bytes", conn.RemoteAddr(), size)

	filler := bytes.Repeat([]byte{'X'}, bufSize)
	var sent uint64
	for sent < size {
		chunk := filler[:min(uint64(bufSize), size-sent)]
		n, err := conn.Write(chunk)
		sent += uint64(n)
		util.Stats.AddStreamBytes(n)
		if err != nil {
			return fmt.Errorf("write after %d of %d bytes: %w", sent, size, err)
		}
	}
	return nil
}

// readSize reads the client's decimal byte count. The count is not
// delimited, so bytes are gathered until a newline, a full buffer, EOF, or a
// short quiet period after the first chunk.
func readSize(conn net.Conn, bufSize int) (uint64, error) {
	buf := make([]byte, bufSize)
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if bytes.IndexAny(buf[:n], "\r\n") >= 0 {
			break
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() && n > 0 {
				break
			}
			if errors.Is(err, io.EOF) && n > 0 {
				break
			}
			return 0, err
		}
		if n > 0 {
			conn.SetReadDeadline(time.Now().Add(sizeSettle))
		}
	}
	conn.SetReadDeadline(time.Time{})

	text := string(bytes.TrimSpace(buf[:n]))
	size, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", text, err)
	}
	return size, nil
}

// RunStream performs one measured stream transfer against addr. Timing starts
// right after the size is sent and stops when the last byte arrives.
func RunStream(ctx context.Context, addr string, size uint64, id int, opts Options) Result {
	res := Result{Kind: KindStream, ID: id, Size: size}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		res.Err = fmt.Errorf("dial %s: %w", addr, err)
		return res
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := netutil.SetDSCP(conn, opts.DSCP); err != nil {
		tcpLog.Debug("#%d: failed to set DSCP: %v", id, err)
	}

	if _, err := conn.Write([]byte(strconv.FormatUint(size, 10))); err != nil {
		res.Err = fmt.Errorf("send size: %w", err)
		return res
	}
	// Half-close so the server sees EOF after the size instead of waiting
	// out sizeSettle.
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		if err := cw.CloseWrite(); err != nil {
			tcpLog.Debug("#%d: failed to half-close: %v", id, err)
		}
	}
	res.Start = time.Now()

	buf := make([]byte, opts.BufferSize)
	for res.Bytes < size {
		n, err := conn.Read(buf)
		res.Bytes += uint64(n)
		if err != nil {
			if res.Bytes >= size {
				break
			}
			res.Err = fmt.Errorf("read after %d of %d bytes: %w", res.Bytes, size, err)
			break
		}
	}

	res.End = time.Now()
	res.Elapsed = res.End.Sub(res.Start)
	return res
}
