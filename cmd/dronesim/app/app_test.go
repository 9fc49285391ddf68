package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureServer upgrades connections, greets them and stores every received
// text message.
type captureServer struct {
	server *httptest.Server

	mu       sync.Mutex
	messages [][]byte
}

func newCaptureServer(t *testing.T) (*captureServer, string) {
	t.Helper()

	cs := &captureServer{}
	upgrader := websocket.Upgrader{}
	cs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrading: %v", err)
			return
		}
		defer conn.Close()

		welcome := map[string]string{"type": "connected", "message": "ingest ready"}
		if err := conn.WriteJSON(welcome); err != nil {
			return
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			cs.mu.Lock()
			cs.messages = append(cs.messages, data)
			cs.mu.Unlock()
		}
	}))
	t.Cleanup(cs.server.Close)

	return cs, "ws" + strings.TrimPrefix(cs.server.URL, "http")
}

func (cs *captureServer) received() [][]byte {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([][]byte, len(cs.messages))
	copy(out, cs.messages)
	return out
}

func testConfig(endpoint string) *Config {
	c := NewConfig()
	c.Endpoint = endpoint
	c.CenterLat = 13.7563
	c.CenterLon = 100.5018
	c.IntervalS = 0.01
	return c
}

func TestRunSendsConfiguredUpdates(t *testing.T) {
	server, endpoint := newCaptureServer(t)

	config := testConfig(endpoint)
	config.Updates = 5
	config.NumDrones = 2
	config.MissRate = 0
	config.FalsePositiveRate = 0

	if err := Run(context.Background(), config, testLogger()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var messages [][]byte
	for time.Now().Before(deadline) {
		if messages = server.received(); len(messages) == 5 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(messages) != 5 {
		t.Fatalf("server received %d messages, want 5", len(messages))
	}

	for i, data := range messages {
		var frame struct {
			FrameID string `json:"fram_id"`
			CamID   string `json:"cam_id"`
			Objects []struct {
				ObjID string `json:"obj_id"`
			} `json:"objects"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("message %d is not valid JSON: %v", i, err)
		}
		if frame.CamID != config.CamID {
			t.Errorf("message %d cam_id = %q, want %q", i, frame.CamID, config.CamID)
		}
		if len(frame.Objects) != 2 {
			t.Errorf("message %d has %d objects, want 2", i, len(frame.Objects))
		}
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	server, endpoint := newCaptureServer(t)

	config := testConfig(endpoint)
	config.NumDrones = 1

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, config, testLogger()) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(server.received()) < 3 {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if len(server.received()) == 0 {
		t.Error("no messages received before cancellation")
	}
}

func TestRunDialFailure(t *testing.T) {
	config := testConfig("ws://127.0.0.1:1/ws?type=ingest")
	config.Updates = 1

	if err := Run(context.Background(), config, testLogger()); err == nil {
		t.Error("Run should fail when the endpoint is unreachable")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := NewConfig()
		c.CenterLat = 13.7563
		c.CenterLon = 100.5018
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with center", func(c *Config) {}, false},
		{"missing center-lat", func(c *Config) { c.CenterLat = math.NaN() }, true},
		{"missing center-lon", func(c *Config) { c.CenterLon = math.NaN() }, true},
		{"zero interval", func(c *Config) { c.IntervalS = 0 }, true},
		{"zero radius", func(c *Config) { c.RadiusM = 0 }, true},
		{"zero drones", func(c *Config) { c.NumDrones = 0 }, true},
		{"inverted speed range", func(c *Config) { c.SpeedMinKt = 30; c.SpeedMaxKt = 10 }, true},
		{"miss rate of one", func(c *Config) { c.MissRate = 1 }, true},
		{"negative fp rate", func(c *Config) { c.FalsePositiveRate = -0.1 }, true},
		{"negative updates", func(c *Config) { c.Updates = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.validate(); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseSpeedRange(t *testing.T) {
	min, max, err := parseSpeedRange("6, 24")
	if err != nil {
		t.Fatalf("parseSpeedRange: %v", err)
	}
	if min != 6 || max != 24 {
		t.Errorf("parseSpeedRange = %v,%v, want 6,24", min, max)
	}

	for _, in := range []string{"6", "6,24,30", "a,b"} {
		if _, _, err := parseSpeedRange(in); err == nil {
			t.Errorf("parseSpeedRange(%q) should fail", in)
		}
	}
}
