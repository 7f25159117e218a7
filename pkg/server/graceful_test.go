package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
}

// startServer serves on a random local port and returns the base URL and
// the channel receiving Serve's result
func startServer(t *testing.T, gs *GracefulServer, ctx context.Context) (string, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()
	return "http://" + ln.Addr().String(), done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
		return nil
	}
}

func TestGracefulServer_ServesAndStopsOnCancel(t *testing.T) {
	gs := NewGracefulServer("127.0.0.1:0", okHandler(), DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	url, done := startServer(t, gs, ctx)

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()
	if err := waitDone(t, done); err != nil {
		t.Errorf("Serve returned %v", err)
	}
	if !gs.IsShuttingDown() {
		t.Error("expected shutting down after cancel")
	}
	select {
	case <-gs.ShutdownChannel():
	default:
		t.Error("shutdown channel not closed")
	}
}

func TestGracefulServer_ConfigReloadOnSIGHUP(t *testing.T) {
	gs := NewGracefulServer("127.0.0.1:0", okHandler(), DefaultOptions())

	var reloads atomic.Int32
	gs.SetConfigReloadFunc(func() error {
		reloads.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	url, done := startServer(t, gs, ctx)

	// Serve is running once a request succeeds, so the signal handler is installed
	for i := 0; i < 50; i++ {
		if resp, err := http.Get(url); err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("failed to send SIGHUP: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for reloads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if reloads.Load() != 1 {
		t.Errorf("reloads = %d, want 1", reloads.Load())
	}
	if gs.IsShuttingDown() {
		t.Error("server should not be shutting down after SIGHUP")
	}

	cancel()
	waitDone(t, done)
}

func TestGracefulServer_ReloadConfig(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler(), Options{})

	if err := gs.ReloadConfig(); err != nil {
		t.Errorf("reload without func: %v", err)
	}

	called := false
	gs.SetConfigReloadFunc(func() error {
		called = true
		return nil
	})
	if err := gs.ReloadConfig(); err != nil {
		t.Errorf("ReloadConfig() error = %v", err)
	}
	if !called {
		t.Error("config reload function was not called")
	}
}

func TestGracefulServer_ReloadConfigWithError(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler(), Options{})
	boom := errors.New("bad config")
	gs.SetConfigReloadFunc(func() error { return boom })

	if err := gs.ReloadConfig(); !errors.Is(err, boom) {
		t.Errorf("expected reload error, got %v", err)
	}
}

func TestGracefulServer_ShutdownIsIdempotent(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler(), Options{})

	if err := gs.Shutdown(time.Second); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := gs.Shutdown(time.Second); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
	if !gs.IsShuttingDown() {
		t.Error("expected shutting down")
	}
}

func TestGracefulServer_RunListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	gs := NewGracefulServer(ln.Addr().String(), okHandler(), Options{})
	if err := gs.Run(context.Background()); err == nil {
		t.Error("expected error for address in use")
	}
}
