package ipc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func socketPath(t *testing.T) string {
	// unix socket paths are short; t.TempDir can exceed the limit
	dir, err := os.MkdirTemp("", "echo")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func TestTriggerRoundTrip(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	_, err := StartServer(ctx, path, func(ctx context.Context, msg ControlMessage) error {
		got <- msg.Cmd
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, SendCommand(path, CmdTrigger))

	select {
	case cmd := <-got:
		assert.Equal(t, CmdTrigger, cmd)
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}
}

func TestHandlerErrorReachesSender(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := StartServer(ctx, path, func(ctx context.Context, msg ControlMessage) error {
		return errors.New("unknown command: " + msg.Cmd)
	})
	require.NoError(t, err)

	err = SendCommand(path, "dance")
	assert.EqualError(t, err, "unknown command: dance")
}

func TestServerStopsOnCancel(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())

	done, err := StartServer(ctx, path, func(context.Context, ControlMessage) error { return nil })
	require.NoError(t, err)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Error(t, SendCommand(path, CmdStop))
}
