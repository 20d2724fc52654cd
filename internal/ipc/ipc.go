package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"time"
)

const SocketPath = "/tmp/echo.sock"

const (
	CmdTrigger = "trigger"
	CmdStop    = "stop"
)

type ControlMessage struct {
	Cmd string `json:"cmd"`
}

type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Handler returns an error to report back to the sender.
type Handler func(ctx context.Context, msg ControlMessage) error

// StartServer listens on path until ctx is done. The returned channel is
// closed once the listener is gone and the socket file removed.
func StartServer(ctx context.Context, path string, handler Handler) (<-chan struct{}, error) {
	if path == "" {
		path = SocketPath
	}
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	log.Debug("Control socket listening", "path", path)

	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go func() {
		defer close(done)
		defer os.Remove(path)

		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}
				log.Warn("Control accept failed", "err", err)
				continue
			}
			go handleConn(ctx, conn, handler)
		}
	}()

	return done, nil
}

func handleConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Warn("Bad control message", "err", err)
		json.NewEncoder(conn).Encode(Ack{Error: "bad message"})
		return
	}

	log.Debug("Control message", "cmd", msg.Cmd)

	ack := Ack{OK: true}
	if err := handler(ctx, msg); err != nil {
		ack = Ack{Error: err.Error()}
	}
	json.NewEncoder(conn).Encode(ack)
}

// SendCommand delivers cmd and waits for the daemon's acknowledgement.
func SendCommand(path, cmd string) error {
	if path == "" {
		path = SocketPath
	}

	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(ControlMessage{Cmd: cmd}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ack Ack
	if err := json.NewDecoder(conn).Decode(&ack); err != nil {
		return fmt.Errorf("read ack: %w", err)
	}
	if !ack.OK {
		return errors.New(ack.Error)
	}
	return nil
}
