// Package wsscore scores wake-word frames through a keyword-spotting
// sidecar reachable over a websocket.
//
// Each frame goes out as one binary message of little-endian int16
// samples. The sidecar answers with one JSON text message mapping model
// name to raw score, e.g. {"hey jarvis": 0.02}.
package wsscore

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

var ErrClosed = errors.New("wsscore: client closed")

type Options struct {
	DialTimeout time.Duration // 0 => 5s
	ReadTimeout time.Duration // per-frame reply deadline, 0 => none
	Models      []string      // sent as ?model= query params, empty => sidecar default
}

type Client struct {
	mu      sync.Mutex
	conn    *ws.Conn
	url     string
	timeout time.Duration
	buf     []byte
	closed  bool
}

func Dial(addr string, opt Options) (*Client, error) {
	log.Debug("Dial wake-word scorer", "url", addr)

	if opt.DialTimeout <= 0 {
		opt.DialTimeout = 5 * time.Second
	}

	dialer := ws.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opt.DialTimeout,
	}

	target, err := withModels(addr, opt.Models)
	if err != nil {
		return nil, err
	}

	conn, _, err := dialer.Dial(target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial scorer %s: %w", addr, err)
	}

	return &Client{
		conn:    conn,
		url:     addr,
		timeout: opt.ReadTimeout,
	}, nil
}

// Score implements wakeword.Scorer.
func (c *Client) Score(frame []int16) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	c.buf = encodeFrame(c.buf[:0], frame)
	if err := c.conn.WriteMessage(ws.BinaryMessage, c.buf); err != nil {
		return nil, fmt.Errorf("send frame: %w", err)
	}

	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
	}

	kind, msg, err := c.conn.ReadMessage()
	if err != nil {
		if isClosed(err) {
			return nil, fmt.Errorf("%w: %v", ErrClosed, err)
		}
		return nil, fmt.Errorf("read scores from %s: %w", c.url, err)
	}
	if kind != ws.TextMessage {
		return nil, fmt.Errorf("unexpected message type %d from scorer", kind)
	}

	return decodeScores(msg)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	_ = c.conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func encodeFrame(dst []byte, frame []int16) []byte {
	for _, s := range frame {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}

func decodeScores(msg []byte) (map[string]float64, error) {
	var scores map[string]float64
	if err := json.Unmarshal(msg, &scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w (raw: %s)", err, msg)
	}
	for name, s := range scores {
		if s < 0 || s > 1 {
			return nil, fmt.Errorf("score %v for %q out of [0, 1]", s, name)
		}
	}
	return scores, nil
}

func withModels(raw string, models []string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse scorer url: %w", err)
	}
	if len(models) == 0 {
		return u.String(), nil
	}

	q := u.Query()
	for _, m := range models {
		q.Add("model", m)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
