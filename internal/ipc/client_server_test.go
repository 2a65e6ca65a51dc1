package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// startServer runs Serve on a fresh socket and returns the socket path plus a
// shutdown func that stops the server and asserts it exited cleanly.
func startServer(t *testing.T, handler Handler) (string, func()) {
	t.Helper()

	socketPath := testSocketPath(t)
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, handler)
	}()

	return socketPath, func() {
		cancel()
		require.NoError(t, <-serveDone)
	}
}

// rawListener accepts one connection and hands it to fn, for exercising
// protocol failures a well-behaved server never produces.
func rawListener(t *testing.T, fn func(net.Conn)) string {
	t.Helper()

	socketPath := testSocketPath(t)
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		fn(conn)
	}()
	return socketPath
}

func TestSendRoundTrip(t *testing.T) {
	socketPath, shutdown := startServer(t, HandlerFunc(func(_ context.Context, req Request) Response {
		require.Equal(t, CommandStatus, req.Command)
		return Response{OK: true, State: "running", Message: "ok"}
	}))
	defer shutdown()

	resp, err := Send(context.Background(), socketPath, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "running", resp.State)
	require.Equal(t, "ok", resp.Message)
}

func TestSendDecodeResponseError(t *testing.T) {
	socketPath := rawListener(t, func(conn net.Conn) {
		defer conn.Close()
		_, _ = bufio.NewReader(conn).ReadBytes('\n')
		_, _ = conn.Write([]byte("not-json\n"))
	})

	_, err := Send(context.Background(), socketPath, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestSendClosedConnectionError(t *testing.T) {
	socketPath := rawListener(t, func(conn net.Conn) {
		_ = conn.Close()
	})

	_, err := Send(context.Background(), socketPath, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestServeDecodeRequestErrorResponse(t *testing.T) {
	socketPath, shutdown := startServer(t, HandlerFunc(func(_ context.Context, _ Request) Response {
		return Response{OK: true}
	}))
	defer shutdown()

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not-json\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "decode request")
}

func TestProbe(t *testing.T) {
	socketPath, shutdown := startServer(t, HandlerFunc(func(_ context.Context, req Request) Response {
		if req.Command == CommandStatus {
			return Response{OK: true, State: "paused"}
		}
		return Response{OK: false, Error: "bad"}
	}))

	alive, err := Probe(context.Background(), socketPath, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, alive)

	shutdown()

	alive, err = Probe(context.Background(), socketPath, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}
