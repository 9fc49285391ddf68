// Package ingest implements the client side of the backend's WebSocket
/// ingest protocol: resolve an endpoint, connect, optionally announce
// metadata, then push JSON or binary frames. Server responses (welcome, per
// frame acks and errors) are advisory and never gate the send loop.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNoResponse reports that the server sent nothing within the bounded wait.
// Callers treat it as a normal outcome.
var ErrNoResponse = errors.New("no response within deadline")

// Response is a JSON message from the server: a type:"connected" welcome on
// open, then type:"ack" or type:"error" per frame.
type Response struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	FrameID string `json:"fram_id,omitempty"`
	Error   string `json:"error,omitempty"`

	// Raw carries the payload verbatim when it is not valid JSON.
	Raw string `json:"-"`
}

// Metadata is the optional prefatory message announcing the sending device
// before binary frames follow.
type Metadata struct {
	Type      string `json:"type"`
	DeviceID  string `json:"device_id"`
	CameraID  string `json:"camera_id"`
	Timestamp string `json:"timestamp"`
}

// NewMetadata builds the metadata announcement for a device/camera pair.
func NewMetadata(deviceID, cameraID string, now time.Time) Metadata {
	return Metadata{
		Type:      "metadata",
		DeviceID:  deviceID,
		CameraID:  cameraID,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}

// Client is a single-connection ingest client. Sends happen from one loop;
// a background goroutine drains server responses so that bounded waits never
// disturb the connection's read state.
type Client struct {
	conn      *websocket.Conn
	responses chan *Response

	mu      sync.Mutex
	readErr error
}

// Dial connects to the ingest endpoint and starts draining responses. The
// context bounds the handshake.
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", endpoint, err)
	}

	c := &Client{
		conn:      conn,
		responses: make(chan *Response, 16),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.responses)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}

		resp := &Response{}
		if json.Unmarshal(data, resp) != nil {
			resp = &Response{Raw: string(data)}
		}

		select {
		case c.responses <- resp:
		default:
			// Nobody is waiting and the buffer is full. Responses are
			// advisory, so the oldest one is dropped.
			select {
			case <-c.responses:
			default:
			}
			c.responses <- resp
		}
	}
}

// SendJSON transmits one payload as a UTF-8 JSON text message.
func (c *Client) SendJSON(v any) error {
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("sending JSON frame: %w", err)
	}
	return nil
}

// SendBinary transmits one payload as a single binary message.
func (c *Client) SendBinary(p []byte) error {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return fmt.Errorf("sending binary frame: %w", err)
	}
	return nil
}

// ReadResponse waits up to timeout for one server message. It returns
// ErrNoResponse when the deadline passes quietly. Payloads that are not JSON
// come back with only Raw set.
func (c *Client) ReadResponse(timeout time.Duration) (*Response, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-c.responses:
		if !ok {
			c.mu.Lock()
			err := c.readErr
			c.mu.Unlock()
			return nil, fmt.Errorf("reading response: %w", err)
		}
		return resp, nil
	case <-timer.C:
		return nil, ErrNoResponse
	}
}

// AwaitWelcome reads the server's opening message. A missing welcome is not
// an error beyond ErrNoResponse; the protocol works without it.
func (c *Client) AwaitWelcome(timeout time.Duration) (*Response, error) {
	return c.ReadResponse(timeout)
}

// Close shuts the connection down and ends the response drain.
func (c *Client) Close() error {
	return c.conn.Close()
}

// IsClosed reports whether err means the connection is gone, which the send
// loops treat as a normal termination path rather than a failure.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	var closeErr *websocket.CloseError
	return errors.As(err, &closeErr) ||
		errors.Is(err, net.ErrClosed) ||
		websocket.IsUnexpectedCloseError(err)
}
