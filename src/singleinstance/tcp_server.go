package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const residentHost = "127.0.0.1"

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	handler atomic.Pointer[Handler]

	mu   sync.Mutex
	lis  net.Listener
	port int
}

func newTcpServer() Server { return &tcpServer{} }

// Start refuses to run next to another resident, then binds ONLY the start
// port of the configured range.
func (s *tcpServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	port, found := findResident(pingCtx)
	cancel()
	if found {
		return fmt.Errorf("%w (control port %d)", ErrAlreadyRunning, port)
	}

	start := rangeFromEnv().start
	addr := addrFor(start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Warn("singleinstance: failed to bind", "addr", addr, "err", err)
		return err
	}
	s.lis = lis
	s.port = start
	slog.Info("singleinstance: listening", "addr", addr)
	go s.acceptLoop(lis)
	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	return nil
}

// Port returns the bound port (0 if not started).
func (s *tcpServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *tcpServer) SetHandler(h Handler) {
	if h == nil {
		s.handler.Store(nil)
		return
	}
	s.handler.Store(&h)
}

func (s *tcpServer) acceptLoop(lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		go s.serve(c)
	}
}

func (s *tcpServer) serve(c net.Conn) {
	defer c.Close()
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(3 * time.Second))
	line, _ := bufio.NewReader(c).ReadString('\n')
	bw := bufio.NewWriter(c)
	defer bw.Flush()

	if strings.TrimSpace(line) == "PING" {
		slog.Debug("singleinstance: PING -> PONG", "remote", remote)
		_, _ = bw.WriteString("PONG\n")
		return
	}

	cmd, err := ParseCommand(line)
	if err != nil {
		_, _ = bw.WriteString("ERROR\n" + err.Error())
		return
	}
	h := s.handler.Load()
	if h == nil {
		_, _ = bw.WriteString("ERROR\nresident is starting")
		return
	}
	slog.Info("singleinstance: control request", "remote", remote, "cmd", string(cmd))
	reply, err := (*h)(cmd)
	if err != nil {
		_, _ = bw.WriteString("ERROR\n" + err.Error())
		return
	}
	_, _ = bw.WriteString("OK\n" + strings.TrimSpace(reply))
}

func (s *tcpServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	err := s.lis.Close()
	s.lis = nil
	s.port = 0
	return err
}
