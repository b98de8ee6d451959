// Package server implements the relay's listeners: HTTP with WebSocket
// upgrades, and an optional framed TCP acceptor, both feeding one hub.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaykit/wsrelay/internal/config"
	"github.com/relaykit/wsrelay/internal/relay"
	"github.com/relaykit/wsrelay/internal/transport"
)

// Server ties the listeners to the hub. Create one with New, call Start to
// bind, and Shutdown to stop; the zero value is not usable.
type Server struct {
	cfg *config.Config
	log *slog.Logger
	hub *relay.Hub

	httpSrv  *http.Server
	httpLn   net.Listener
	tcpLn    net.Listener
	upgrader websocket.Upgrader
	wsOpts   transport.Options
	tcpOpts  transport.Options

	wg sync.WaitGroup
}

// New builds a server from cfg. Nothing is bound until Start.
func New(cfg *config.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	hub := relay.NewHub(log, relay.Config{
		SendBuffer: cfg.SendBuffer,
		RateLimit: relay.RateLimitConfig{
			Burst:          cfg.RateLimit.Burst,
			RefillInterval: cfg.RateLimit.RefillInterval,
		},
	})

	origins := newOriginPolicy(cfg.AllowedOrigins, log)

	s := &Server{
		cfg: cfg,
		log: log,
		hub: hub,
		wsOpts: transport.Options{
			WriteTimeout:   cfg.WriteTimeout,
			PingInterval:   cfg.PingInterval,
			PongWait:       cfg.PongWait,
			MaxMessageSize: cfg.MaxMessageSize,
		},
		tcpOpts: transport.Options{
			WriteTimeout:   cfg.WriteTimeout,
			MaxMessageSize: cfg.MaxMessageSize,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
	}

	s.httpSrv = &http.Server{
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Hub exposes the relay hub, mainly for inspection.
func (s *Server) Hub() *relay.Hub {
	return s.hub
}

// Start binds the configured listeners and begins serving. A bind failure
// is fatal and returned immediately; once Start returns nil, both
// listeners are accepting.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.cfg.ListenAddr, err)
	}
	s.httpLn = ln

	if s.cfg.TCPListenAddr != "" {
		tcpLn, err := net.Listen("tcp", s.cfg.TCPListenAddr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("binding %s: %w", s.cfg.TCPListenAddr, err)
		}
		s.tcpLn = tcpLn

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.acceptLoop(tcpLn)
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", "error", err)
		}
	}()

	s.log.Info("listening", "http", ln.Addr().String(), "tcp", s.TCPAddr())
	return nil
}

// acceptLoop accepts framed TCP connections until the listener closes.
// A failure on one connection never takes the acceptor down with it.
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}

		if _, err := s.hub.Attach(transport.NewTCPConn(conn, s.tcpOpts)); err != nil {
			if !errors.Is(err, relay.ErrHubClosed) {
				s.log.Warn("attach failed", "remote", conn.RemoteAddr().String(), "error", err)
			}
		}
	}
}

// Addr returns the bound HTTP address, useful when listening on :0.
func (s *Server) Addr() string {
	if s.httpLn == nil {
		return ""
	}
	return s.httpLn.Addr().String()
}

// TCPAddr returns the bound framed TCP address, or empty when disabled.
func (s *Server) TCPAddr() string {
	if s.tcpLn == nil {
		return ""
	}
	return s.tcpLn.Addr().String()
}

// Shutdown stops accepting new connections, then drops every peer and
// waits for their pumps. The context bounds the whole process.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")

	if s.tcpLn != nil {
		_ = s.tcpLn.Close()
	}

	err := s.httpSrv.Shutdown(ctx)
	if hubErr := s.hub.Shutdown(ctx); hubErr != nil && err == nil {
		err = hubErr
	}

	s.wg.Wait()
	return err
}
