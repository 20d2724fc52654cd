package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echo/internal/config"
	"echo/internal/metrics"
	"echo/pkg/audioconv"
	"echo/pkg/wakeword"
)

func TestScanGivesUpOnStalledScorer(t *testing.T) {
	release := make(chan struct{})
	upgrader := ws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage()
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	clip := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, audioconv.WriteWAV(clip, make([]float32, 4*wakeword.FrameLength)))

	cfg := config.Config{
		Mode:      config.ModeScan,
		ScanFile:  clip,
		ScorerURL: "ws" + strings.TrimPrefix(srv.URL, "http"),
		Wake:      wakeword.DefaultConfig(),
	}
	reg := prometheus.NewRegistry()

	done := make(chan error, 1)
	go func() { done <- scan(context.Background(), cfg, metrics.NewWithRegistry(reg, reg)) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "read scores")
	case <-time.After(5 * time.Second):
		t.Fatal("scan hung on a silent scorer")
	}
}
