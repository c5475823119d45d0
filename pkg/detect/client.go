package detect

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a websocket client for the landmark detector service.
// Each Detect call sends one binary message (8-byte big-endian timestamp
// followed by the JPEG bytes) and reads one JSON result back.
//
// The mutex guards writes and the closed flag only. Reads run unguarded
// so Close can always take the lock and tear the connection down, which
// unblocks a Detect stuck waiting on a detector that never replies.
// Detect itself is not safe for concurrent use; the session's capture
// goroutine is its only caller.
type Client struct {
	url string

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
}

// Dial connects to the detector service.
func Dial(url string) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, url, err)
	}
	return &Client{url: url, ws: ws}, nil
}

// Detect implements Detector.
func (c *Client) Detect(jpeg []byte, timestampMS int64) (*Result, error) {
	msg := make([]byte, 8+len(jpeg))
	binary.BigEndian.PutUint64(msg, uint64(timestampMS))
	copy(msg[8:], jpeg)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	err := c.ws.WriteMessage(websocket.BinaryMessage, msg)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: write frame: %v", ErrUnavailable, err)
	}

	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if c.isClosed() {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("%w: read result: %v", ErrUnavailable, err)
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse detector result: %w", err)
	}
	return &res, nil
}

// Close implements Detector. Closing the connection unblocks any Detect
// pending on a read.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.ws.Close()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
