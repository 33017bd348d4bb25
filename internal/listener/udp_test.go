package listener

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestListener(t *testing.T, handler Handler) (addr string, stop func()) {
	t.Helper()
	l := NewUDPListener("127.0.0.1:0", handler, nil)

	conn, err := l.listenReusePort()
	require.NoError(t, err)
	l.conns = append(l.conns, conn)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.serve(ctx, conn)
	}()

	return conn.LocalAddr().String(), func() {
		cancel()
		l.Close()
		<-done
	}
}

func TestUDPListenerEchoesResponse(t *testing.T) {
	handler := func(ctx context.Context, query []byte, clientAddr string) []byte {
		reply := make([]byte, len(query))
		copy(reply, query)
		return reply
	}
	addr, stop := startTestListener(t, handler)
	defer stop()

	clientConn, err := net.Dial("udp", addr)
	require.NoError(t, err)
	defer clientConn.Close()

	_, err = clientConn.Write([]byte("ping"))
	require.NoError(t, err)

	require.NoError(t, clientConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, maxUDPMessageSize)
	n, err := clientConn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
}

func TestUDPListenerDropsNilResponse(t *testing.T) {
	handler := func(ctx context.Context, query []byte, clientAddr string) []byte {
		return nil
	}
	addr, stop := startTestListener(t, handler)
	defer stop()

	clientConn, err := net.Dial("udp", addr)
	require.NoError(t, err)
	defer clientConn.Close()

	_, err = clientConn.Write([]byte("ping"))
	require.NoError(t, err)

	require.NoError(t, clientConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	buf := make([]byte, maxUDPMessageSize)
	_, err = clientConn.Read(buf)
	assert.Error(t, err)
}

func TestUDPListenerClosePreventsFurtherReads(t *testing.T) {
	l := NewUDPListener("127.0.0.1:0", func(ctx context.Context, query []byte, clientAddr string) []byte { return nil }, nil)
	conn, err := l.listenReusePort()
	require.NoError(t, err)
	l.conns = append(l.conns, conn)

	l.Close()
	l.Close() // safe to call twice

	_, err = conn.Read(make([]byte, 1))
	assert.Error(t, err)
}
