// Package server owns the game protocol listener: a TCP accept loop, one
// goroutine per connection reading a single bounded request at a time, and a
// worker pool running the dispatcher.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ettorre/wordarena/internal/dependencies/clock"
	"github.com/ettorre/wordarena/internal/protocol"
)

// maxRequestSize caps one request buffer. Anything the client sends past
// this is treated as malformed.
const maxRequestSize = 4096

type Server struct {
	dispatcher *protocol.Dispatcher
	clock      clock.Clock
	logger     *slog.Logger

	listener net.Listener
	pool     *workerPool

	mu    sync.Mutex
	conns map[uuid.UUID]net.Conn

	done chan struct{}
	wg   sync.WaitGroup
}

func New(dispatcher *protocol.Dispatcher, clk clock.Clock, logger *slog.Logger) *Server {
	return &Server{
		dispatcher: dispatcher,
		clock:      clk,
		logger:     logger.With(slog.String("component", "server")),
		conns:      map[uuid.UUID]net.Conn{},
		done:       make(chan struct{}),
	}
}

// Start listens on addr and serves until Shutdown. It blocks.
func (s *Server) Start(addr string, workers int) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = listener
	s.pool = newWorkerPool(workers)
	s.logger.Info("game server listening",
		slog.String("addr", listener.Addr().String()),
		slog.Int("workers", workers))

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}
		id := uuid.New()
		s.track(id, conn)
		s.wg.Add(1)
		go s.serveConn(id, conn)
	}
}

// Addr returns the bound listen address, valid once Start is running.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting, closes every live connection, and drains the
// worker pool.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info("shutting down game server")
	close(s.done)
	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.mu.Lock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if s.pool != nil {
		s.pool.Stop()
	}
	s.logger.Info("game server stopped")
	return nil
}

func (s *Server) track(id uuid.UUID, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[id] = conn
}

func (s *Server) untrack(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

// serveConn reads one request at a time, runs it on the pool, writes the
// response, then reads the next. One request in flight per connection keeps
// per-connection ordering.
func (s *Server) serveConn(id uuid.UUID, conn net.Conn) {
	defer func() {
		s.untrack(id)
		_ = conn.Close()
		s.wg.Done()
	}()

	logger := s.logger.With(slog.String("conn_id", id.String()))
	logger.Debug("connection opened",
		slog.String("remote", conn.RemoteAddr().String()))

	buf := make([]byte, maxRequestSize)
	for {
		raw, err := readRequest(conn, buf)
		if err != nil {
			logger.Debug("connection closed", slog.Any("error", err))
			return
		}

		respCh := make(chan []byte, 1)
		s.pool.Submit(func() {
			respCh <- s.process(raw)
		})

		select {
		case payload := <-respCh:
			if _, err := conn.Write(payload); err != nil {
				logger.Debug("write failed", slog.Any("error", err))
				return
			}
		case <-s.done:
			return
		}
	}
}

// readRequest accumulates reads until one full request sits in buf. TCP may
// split a request across segments, so a single Read is never trusted to
// carry the whole thing.
func readRequest(conn net.Conn, buf []byte) ([]byte, error) {
	total := 0
	for {
		n, err := conn.Read(buf[total:])
		total += n
		if raw, ok := completeRequest(buf[:total]); ok {
			out := make([]byte, len(raw))
			copy(out, raw)
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if total == len(buf) {
			return nil, fmt.Errorf("request exceeds %d bytes", len(buf))
		}
	}
}

// completeRequest reports whether data holds a full request and returns it.
// A request is complete at the header block's blank line, plus Content-Length
// body bytes when that header is present. Clients that send a body without
// Content-Length must deliver it together with the headers.
func completeRequest(data []byte) ([]byte, bool) {
	sep := []byte("\r\n\r\n")
	idx := bytes.Index(data, sep)
	if lf := bytes.Index(data, []byte("\n\n")); lf != -1 && (idx == -1 || lf < idx) {
		idx, sep = lf, []byte("\n\n")
	}
	if idx == -1 {
		return nil, false
	}
	bodyStart := idx + len(sep)
	length := contentLength(data[:idx])
	if length < 0 {
		return data, true
	}
	if len(data) < bodyStart+length {
		return nil, false
	}
	return data[:bodyStart+length], true
}

func contentLength(headers []byte) int {
	for _, line := range strings.Split(string(headers), "\n") {
		name, value, found := strings.Cut(line, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil && n >= 0 {
			return n
		}
	}
	return -1
}

// process turns raw bytes into encoded response bytes. It never returns nil.
func (s *Server) process(raw []byte) []byte {
	var resp *protocol.Response
	req, err := protocol.ParseRequest(raw)
	if err != nil {
		resp = protocol.NewResponse(protocol.StatusBadRequest, "Malformed request")
	} else {
		resp = s.dispatcher.Handle(context.Background(), req)
	}

	payload, err := resp.Encode(s.clock.Now())
	if err != nil {
		s.logger.Error("encoding response", slog.Any("error", err))
		fallback, _ := protocol.NewResponse(protocol.StatusInternal, "Internal server error").
			Encode(s.clock.Now())
		return fallback
	}
	return payload
}
