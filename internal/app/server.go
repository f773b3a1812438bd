// Package app contains the top-level orchestration for server and client roles.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/1ureka/lanspeed/internal/config"
	"github.com/1ureka/lanspeed/internal/discovery"
	"github.com/1ureka/lanspeed/internal/monitor"
	"github.com/1ureka/lanspeed/internal/netutil"
	"github.com/1ureka/lanspeed/internal/protocol"
	"github.com/1ureka/lanspeed/internal/transfer"
	"github.com/1ureka/lanspeed/internal/util"
)

var (
	serverLog = util.Scope("server")
	tcpLog    = util.Scope("TCP")
)

// Server owns the stream listener and the datagram socket and runs the
// beacon, the datagram handler and the stream acceptor side by side.
type Server struct {
	cfg  config.Config
	opts transfer.Options

	stream   net.Listener
	datagram *net.UDPConn
}

// NewServer creates a server; call Listen before Serve.
func NewServer(cfg config.Config) *Server {
	return &Server{cfg: cfg, opts: transfer.OptionsFrom(cfg)}
}

// Listen binds the stream and datagram ports.
func (s *Server) Listen() error {
	stream, err := net.Listen("tcp4", fmt.Sprintf(":%d", s.cfg.StreamPort))
	if err != nil {
		return fmt.Errorf("failed to listen on tcp port %d: %w", s.cfg.StreamPort, err)
	}

	datagram, err := net.ListenUDP("udp4", &net.UDPAddr{Port: s.cfg.DatagramPort})
	if err != nil {
		stream.Close()
		return fmt.Errorf("failed to listen on udp port %d: %w", s.cfg.DatagramPort, err)
	}
	if err := netutil.SetPacketDSCP(datagram, s.cfg.DSCP); err != nil {
		serverLog.Warn("failed to set DSCP on datagram socket: %v", err)
	}

	s.stream = stream
	s.datagram = datagram
	return nil
}

// StreamPort returns the bound TCP port.
func (s *Server) StreamPort() int { return s.stream.Addr().(*net.TCPAddr).Port }

// DatagramPort returns the bound UDP port.
func (s *Server) DatagramPort() int { return s.datagram.LocalAddr().(*net.UDPAddr).Port }

// Serve runs every server component until ctx is cancelled and all of them
// have stopped.
func (s *Server) Serve(ctx context.Context) error {
	beacon, err := discovery.NewBeacon(s.cfg.BroadcastAddr, s.cfg.BeaconInterval, protocol.Offer{
		DatagramPort: uint16(s.DatagramPort()),
		StreamPort:   uint16(s.StreamPort()),
	}, s.cfg.DSCP)
	if err != nil {
		s.stream.Close()
		s.datagram.Close()
		return err
	}

	if s.cfg.MonitorAddr != "" {
		addr, err := monitor.NewServer(s.cfg.MonitorAddr, s.cfg.StatsInterval).Start(ctx)
		if err != nil {
			serverLog.Warn("%v", err)
		} else {
			serverLog.Info("monitor feed available at ws://%s/ws", addr)
		}
	}
	util.StartStatsReporter(ctx, s.cfg.StatsInterval)

	serverLog.Info("broadcasting offers to %s every %v (UDP %d, TCP %d)",
		s.cfg.BroadcastAddr, s.cfg.BeaconInterval, s.DatagramPort(), s.StreamPort())
	if s.cfg.SerialDatagrams {
		serverLog.Info("datagram requests are served one at a time")
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		beacon.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		transfer.ServeDatagrams(ctx, s.datagram, s.opts)
	}()
	go func() {
		defer wg.Done()
		s.acceptStreams(ctx)
	}()

	wg.Wait()
	return nil
}

// acceptStreams dispatches every accepted connection to its own goroutine.
func (s *Server) acceptStreams(ctx context.Context) {
	// Close the listener when context is done so Accept() returns an error.
	context.AfterFunc(ctx, func() { s.stream.Close() })

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := s.stream.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			tcpLog.Warn("accept error: %v", err)
			continue
		}

		util.Stats.AddStreamConn()
		tcpLog.Info("client connected from %s", conn.RemoteAddr())
		if err := netutil.SetDSCP(conn, s.cfg.DSCP); err != nil {
			tcpLog.Debug("failed to set DSCP: %v", err)
		}

		wg.Add(1)
		go tcpLog.Guard("stream handler", func() {
			defer wg.Done()
			remote := conn.RemoteAddr()
			if err := transfer.ServeStream(ctx, conn, s.opts); err != nil {
				tcpLog.Error("%s: %v", remote, err)
				return
			}
			util.Stats.AddStreamDone()
			tcpLog.Success("transfer to %s completed", remote)
		})
	}
}

// RunServer binds the server ports and serves until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.Config) error {
	s := NewServer(cfg)
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}
