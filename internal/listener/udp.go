// Package listener implements the network-facing entry points: a
// SO_REUSEPORT UDP listener for classic DNS and an HTTP handler for
// DNS-over-HTTPS (RFC 8484).
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"runtime"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"dnsproxy/internal/pool"
)

// Handler resolves a single raw DNS query into a raw DNS response.
type Handler func(ctx context.Context, query []byte, clientAddr string) []byte

const (
	maxUDPMessageSize = 4096
	workersPerSocket  = 4
	queryTimeout      = 5 * time.Second
)

// UDPListener runs one UDP socket per CPU core, each bound to the same
// address via SO_REUSEPORT so the kernel load-balances incoming datagrams
// across them, and workersPerSocket reader goroutines per socket reading
// off it. Each received query is handled on its own goroutine, so the read
// loop never waits for a handler and no query is dropped for lack of a
// worker; the number of queries handled at once is not bounded.
type UDPListener struct {
	addr    string
	handler Handler
	logger  *slog.Logger
	bufPool *pool.Pool[[]byte]

	mu    sync.Mutex
	conns []*net.UDPConn
}

// NewUDPListener creates a listener that will dispatch received queries to
// handler.
func NewUDPListener(addr string, handler Handler, logger *slog.Logger) *UDPListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &UDPListener{
		addr:    addr,
		handler: handler,
		logger:  logger,
		bufPool: pool.New(func() []byte { return make([]byte, maxUDPMessageSize) }),
	}
}

// Run opens one socket per CPU core and blocks serving queries until ctx
// is cancelled.
func (l *UDPListener) Run(ctx context.Context) error {
	sockets := runtime.GOMAXPROCS(0)
	if sockets < 1 {
		sockets = 1
	}

	var wg sync.WaitGroup
	errCh := make(chan error, sockets)

	for i := 0; i < sockets; i++ {
		conn, err := l.listenReusePort()
		if err != nil {
			l.Close()
			return fmt.Errorf("open udp socket %d: %w", i, err)
		}
		l.mu.Lock()
		l.conns = append(l.conns, conn)
		l.mu.Unlock()

		for w := 0; w < workersPerSocket; w++ {
			wg.Add(1)
			go func(conn *net.UDPConn) {
				defer wg.Done()
				l.serve(ctx, conn)
			}(conn)
		}
	}

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	wg.Wait()
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// listenReusePort opens a UDP socket with SO_REUSEPORT set before bind, so
// multiple sockets can share the same address and let the kernel spread
// incoming datagrams across them.
func (l *UDPListener) listenReusePort() (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	pc, err := lc.ListenPacket(context.Background(), "udp", l.addr)
	if err != nil {
		return nil, err
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("unexpected packet connection type %T", pc)
	}
	return conn, nil
}

func (l *UDPListener) serve(ctx context.Context, conn *net.UDPConn) {
	for {
		buf := l.bufPool.Get()
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			l.bufPool.Put(buf)
			if ctx.Err() != nil {
				return
			}
			l.logger.Warn("udp read error", "error", err)
			continue
		}

		query := make([]byte, n)
		copy(query, buf[:n])
		l.bufPool.Put(buf)

		go l.handle(ctx, conn, addr, query)
	}
}

func (l *UDPListener) handle(ctx context.Context, conn *net.UDPConn, addr *net.UDPAddr, query []byte) {
	reqCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	resp := l.handler(reqCtx, query, addr.String())
	if resp == nil {
		return
	}
	if _, err := conn.WriteToUDP(resp, addr); err != nil {
		l.logger.Debug("udp write error", "error", err, "client", addr.String())
	}
}

// Close shuts down every socket. Safe to call more than once.
func (l *UDPListener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.conns {
		c.Close()
	}
	l.conns = nil
}
