package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	http3 "github.com/quic-go/quic-go/http3"
)

// shutdownWait bounds how long Serve waits for the QUIC listener to drain.
const shutdownWait = time.Second

// Server serves a handler over HTTP/3 on one UDP socket.
type Server struct {
	h3   *http3.Server
	conn net.PacketConn
}

// Listen binds the UDP socket for addr. Serving starts with Serve; Addr
// reports the bound address, which differs from addr when its port is 0.
func Listen(addr string, tlsCfg *tls.Config, h http.Handler) (*Server, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Server{
		h3:   &http3.Server{TLSConfig: http3.ConfigureTLSConfig(tlsCfg), Handler: h},
		conn: conn,
	}, nil
}

// Addr returns the bound UDP address.
func (s *Server) Addr() string { return s.conn.LocalAddr().String() }

// Serve handles requests until ctx is done or the listener fails. It returns
// nil after a shutdown caused by ctx.
func (s *Server) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- s.h3.Serve(s.conn) }()

	select {
	case err := <-errc:
		s.conn.Close()
		return err
	case <-ctx.Done():
	}

	err := s.h3.Close()
	s.conn.Close()
	select {
	case <-errc:
	case <-time.After(shutdownWait):
	}
	return err
}
