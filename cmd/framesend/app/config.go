package app

import (
	"errors"
	"flag"
)

// Config holds the validated run parameters for the binary frame sender.
type Config struct {
	Endpoint string
	Host     string
	Port     int

	DeviceID string
	CameraID string

	FramesDir string
	IntervalS float64
	Updates   int
	Loop      bool

	SendMetadataJSON bool
	Verbose          bool
}

// NewConfigFromCLI parses and validates the command line.
func NewConfigFromCLI() (*Config, error) {
	c := Config{}

	flag.StringVar(&c.Endpoint, "endpoint", "", "Full WebSocket endpoint URL (overrides -host/-port; also via WEBSOCKET_ENDPOINT)")
	flag.StringVar(&c.Host, "host", "localhost", "WebSocket server hostname or IP")
	flag.IntVar(&c.Port, "port", 3000, "WebSocket server port")
	flag.StringVar(&c.DeviceID, "device-id", "sim-device-1", "Device identifier")
	flag.StringVar(&c.CameraID, "camera-id", "sim-camera-1", "Camera identifier")
	flag.StringVar(&c.FramesDir, "frames-dir", "P3_VIDEO_frames", "Directory containing image files (PNG/JPEG)")
	flag.Float64Var(&c.IntervalS, "interval-s", 0.5, "Seconds between frames")
	flag.IntVar(&c.Updates, "updates", 0, "Total frames to send (0 = send all images once)")
	flag.BoolVar(&c.Loop, "loop", false, "Loop through images continuously")
	flag.BoolVar(&c.SendMetadataJSON, "send-metadata-json", false, "Send metadata as a JSON message before images")
	flag.BoolVar(&c.Verbose, "verbose", false, "Log detailed acknowledgments")
	flag.Parse()

	var err error
	if c.IntervalS <= 0 {
		err = errors.New("interval must be greater than zero")
	} else if c.Updates < 0 {
		err = errors.New("updates must be >= 0 (0 = send all)")
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}
	return &c, nil
}
