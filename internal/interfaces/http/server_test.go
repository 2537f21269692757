package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisuniflora/VF/internal/config"
	"github.com/irisuniflora/VF/internal/testutil"
)

func TestNewServer(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 8080, ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second}
	mux := http.NewServeMux()

	s := NewServer(cfg, mux, testutil.NewMockLogger())

	assert.Equal(t, "127.0.0.1:8080", s.Addr())
	assert.Equal(t, mux, s.Handler())
}

func TestServer_ServeAndStop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "pong") })
	logger := testutil.NewMockLogger()
	s := NewServer(config.ServerConfig{ShutdownTimeout: time.Second}, mux, logger)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	require.NoError(t, s.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, logger.HasMessage("info", "HTTP server stopped"))
}
