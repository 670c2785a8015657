package server

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovelydayss/zredis/config"
	"github.com/lovelydayss/zredis/log"
)

type recordHandler struct {
	closed atomic.Int32
}

func (h *recordHandler) Start() error { return nil }

func (h *recordHandler) Close() { h.closed.Add(1) }

func (h *recordHandler) Handle(_ context.Context, conn net.Conn) { _ = conn.Close() }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	conf := config.Default()
	conf.Log.Level = "error"
	s, err := ConstructServer(conf)
	require.NoError(t, err)
	return s
}

func TestServer_ServeInvalidAddress(t *testing.T) {
	s := newTestServer(t)
	assert.Error(t, s.Serve("256.0.0.1:-1"))
}

func TestServer_ServeInvalidAddressClosesHandler(t *testing.T) {
	h := &recordHandler{}
	s := NewServer(h, log.Default())

	assert.Error(t, s.Serve("256.0.0.1:-1"))
	assert.Equal(t, int32(1), h.closed.Load())
}

func TestServer_StopAndRestart(t *testing.T) {
	s := newTestServer(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.ServeListener(listener) }()

	// 等待服务端开始接收连接
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", listener.Addr().String())
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}

	other, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer other.Close()
	assert.ErrorIs(t, s.ServeListener(other), ErrServerStarted)
}
