// Package ipc provides the single-instance control channel: a unix socket
// in the user runtime dir speaking one JSON request/response per connection.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrAlreadyRunning reports that a responsive session owns the socket.
var ErrAlreadyRunning = errors.New("dictee session already running")

// RuntimeSocketPath returns the control socket location under
// $XDG_RUNTIME_DIR.
func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, "dictee.sock"), nil
}

// Acquire binds the control socket, claiming single-instance ownership.
// When the path is occupied it probes the occupant: a live session yields
// ErrAlreadyRunning; a dead socket is unlinked (running the optional rescue
// hook) and the bind retried with a short growing backoff.
func Acquire(
	ctx context.Context,
	path string,
	probeTimeout time.Duration,
	retries int,
	rescue func(context.Context) error,
) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; ; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !isAddrInUse(err) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		if err := reclaimSocket(ctx, path, probeTimeout, rescue); err != nil {
			return nil, err
		}

		if attempt >= retries {
			return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, retries)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 25 * time.Millisecond):
		}
	}
}

// reclaimSocket removes a confirmed-dead socket file so the bind can retry.
func reclaimSocket(ctx context.Context, path string, probeTimeout time.Duration, rescue func(context.Context) error) error {
	alive, probeErr := Probe(ctx, path, probeTimeout)
	if alive {
		return ErrAlreadyRunning
	}
	if probeErr != nil {
		return fmt.Errorf("probe existing socket %s: %w", path, probeErr)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	if rescue != nil {
		_ = rescue(ctx)
	}
	return nil
}

func isAddrInUse(err error) bool {
	return err != nil && strings.Contains(err.Error(), "address already in use")
}
