package app

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultCamID = "e8a76237-df96-4a6a-9375-baa4d74f5f12"
	defaultToken = "257c87b4-9469-44fe-9132-8937f69723bd"
)

// Config holds the validated run parameters for the telemetry simulator.
type Config struct {
	Endpoint string
	Host     string
	Port     int
	Path     string

	CenterLat float64
	CenterLon float64
	IntervalS float64
	Updates   int

	RadiusM   float64
	AltitudeM float64
	WobbleM   float64

	NumDrones         int
	SpeedMinKt        float64
	SpeedMaxKt        float64
	NoiseLevelM       float64
	MissRate          float64
	FalsePositiveRate float64

	CamID string
	Token string

	ShowResponses bool
	RecordPath    string
}

// Scenario mirrors the YAML scenario file. Explicit CLI flags override the
// values loaded from it.
type Scenario struct {
	Scene struct {
		CenterLat       float64 `yaml:"centerLat"`
		CenterLon       float64 `yaml:"centerLon"`
		RadiusM         float64 `yaml:"radiusM"`
		AltitudeM       float64 `yaml:"altitudeM"`
		AltitudeWobbleM float64 `yaml:"altitudeWobbleM"`
	} `yaml:"scene"`
	Fleet struct {
		NumDrones         int       `yaml:"numDrones"`
		SpeedRangeKt      []float64 `yaml:"speedRangeKt"`
		NoiseLevelM       *float64  `yaml:"noiseLevelM"`
		MissRate          *float64  `yaml:"missRate"`
		FalsePositiveRate *float64  `yaml:"falsePositiveRate"`
	} `yaml:"fleet"`
	Camera struct {
		CamID string `yaml:"camID"`
		Token string `yaml:"token"`
	} `yaml:"camera"`
}

// NewConfig returns a Config with the simulator defaults.
func NewConfig() *Config {
	return &Config{
		Host:              "localhost",
		Port:              3000,
		Path:              "/ws/ingest",
		CenterLat:         math.NaN(),
		CenterLon:         math.NaN(),
		IntervalS:         0.5,
		RadiusM:           120,
		AltitudeM:         120,
		WobbleM:           8,
		NumDrones:         1,
		SpeedMinKt:        6,
		SpeedMaxKt:        24,
		NoiseLevelM:       3,
		MissRate:          0.10,
		FalsePositiveRate: 0.03,
		CamID:             defaultCamID,
		Token:             defaultToken,
	}
}

// NewConfigFromCLI parses and validates the command line. A scenario file,
// when given, supplies scene and fleet parameters; flags set explicitly on
// the command line still win.
func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var speedRange, scenarioPath string
	flag.StringVar(&c.Endpoint, "endpoint", "", "Full WebSocket endpoint URL (overrides -host/-port/-path; also via WEBSOCKET_ENDPOINT)")
	flag.StringVar(&c.Host, "host", c.Host, "WebSocket server hostname or IP")
	flag.IntVar(&c.Port, "port", c.Port, "WebSocket server port")
	flag.StringVar(&c.Path, "path", c.Path, "WebSocket path")
	flag.Float64Var(&c.CenterLat, "center-lat", c.CenterLat, "Latitude of the scene center")
	flag.Float64Var(&c.CenterLon, "center-lon", c.CenterLon, "Longitude of the scene center")
	flag.Float64Var(&c.IntervalS, "interval-s", c.IntervalS, "Seconds between published updates")
	flag.IntVar(&c.Updates, "updates", 0, "Total updates to send (0 = run continuously)")
	flag.Float64Var(&c.RadiusM, "radius-m", c.RadiusM, "Base orbit radius in meters")
	flag.Float64Var(&c.AltitudeM, "altitude-m", c.AltitudeM, "Base altitude in meters")
	flag.Float64Var(&c.WobbleM, "altitude-wobble-m", c.WobbleM, "Altitude variation amplitude in meters")
	flag.IntVar(&c.NumDrones, "num-drones", c.NumDrones, "How many drones per frame")
	flag.StringVar(&speedRange, "speed-range-kt", "6,24", "Drone speed range in knots (MIN,MAX)")
	flag.Float64Var(&c.NoiseLevelM, "noise-level-m", c.NoiseLevelM, "GPS jitter standard deviation in meters")
	flag.Float64Var(&c.MissRate, "miss-rate", c.MissRate, "Probability per frame to miss a real drone")
	flag.Float64Var(&c.FalsePositiveRate, "false-positive-rate", c.FalsePositiveRate, "Probability per frame to add a false detection")
	flag.StringVar(&c.CamID, "cam-id", c.CamID, "Camera identifier")
	flag.StringVar(&c.Token, "token", c.Token, "Camera token for API authentication")
	flag.BoolVar(&c.ShowResponses, "show-responses", false, "Log server responses (ack/error messages)")
	flag.StringVar(&scenarioPath, "scenario", "", "Path to a YAML scenario file")
	flag.StringVar(&c.RecordPath, "record", "", "Record sent frames into the given SQLite database")
	flag.Parse()

	setFlags := make(map[string]struct{})
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	if scenarioPath != "" {
		if err := c.applyScenario(scenarioPath, setFlags); err != nil {
			return nil, err
		}
	}

	if _, ok := setFlags["speed-range-kt"]; ok || scenarioPath == "" {
		min, max, err := parseSpeedRange(speedRange)
		if err != nil {
			flag.Usage()
			return nil, err
		}
		c.SpeedMinKt, c.SpeedMaxKt = min, max
	}

	if err := c.validate(); err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

func (c *Config) applyScenario(path string, setFlags map[string]struct{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading scenario file: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing scenario file: %w", err)
	}

	set := func(name string) bool {
		_, ok := setFlags[name]
		return ok
	}

	if !set("center-lat") && s.Scene.CenterLat != 0 {
		c.CenterLat = s.Scene.CenterLat
	}
	if !set("center-lon") && s.Scene.CenterLon != 0 {
		c.CenterLon = s.Scene.CenterLon
	}
	if !set("radius-m") && s.Scene.RadiusM > 0 {
		c.RadiusM = s.Scene.RadiusM
	}
	if !set("altitude-m") && s.Scene.AltitudeM > 0 {
		c.AltitudeM = s.Scene.AltitudeM
	}
	if !set("altitude-wobble-m") && s.Scene.AltitudeWobbleM > 0 {
		c.WobbleM = s.Scene.AltitudeWobbleM
	}
	if !set("num-drones") && s.Fleet.NumDrones > 0 {
		c.NumDrones = s.Fleet.NumDrones
	}
	if !set("speed-range-kt") && len(s.Fleet.SpeedRangeKt) == 2 {
		c.SpeedMinKt, c.SpeedMaxKt = s.Fleet.SpeedRangeKt[0], s.Fleet.SpeedRangeKt[1]
	}
	if !set("noise-level-m") && s.Fleet.NoiseLevelM != nil {
		c.NoiseLevelM = *s.Fleet.NoiseLevelM
	}
	if !set("miss-rate") && s.Fleet.MissRate != nil {
		c.MissRate = *s.Fleet.MissRate
	}
	if !set("false-positive-rate") && s.Fleet.FalsePositiveRate != nil {
		c.FalsePositiveRate = *s.Fleet.FalsePositiveRate
	}
	if !set("cam-id") && s.Camera.CamID != "" {
		c.CamID = s.Camera.CamID
	}
	if !set("token") && s.Camera.Token != "" {
		c.Token = s.Camera.Token
	}
	return nil
}

func parseSpeedRange(s string) (min, max float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("speed-range-kt must be MIN,MAX: %q", s)
	}
	if min, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid speed range minimum: %q", parts[0])
	}
	if max, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid speed range maximum: %q", parts[1])
	}
	return min, max, nil
}

func (c *Config) validate() error {
	switch {
	case math.IsNaN(c.CenterLat):
		return errors.New("center-lat is required")
	case math.IsNaN(c.CenterLon):
		return errors.New("center-lon is required")
	case c.IntervalS <= 0:
		return errors.New("update interval must be greater than zero")
	case c.RadiusM <= 0:
		return errors.New("orbit radius must be greater than zero")
	case c.NumDrones < 1:
		return errors.New("num-drones must be >= 1")
	case c.SpeedMinKt <= 0 || c.SpeedMinKt > c.SpeedMaxKt:
		return errors.New("speed-range-kt must be MIN,MAX with MIN > 0 and MIN <= MAX")
	case c.MissRate < 0 || c.MissRate >= 1:
		return errors.New("miss-rate must be in [0, 1)")
	case c.FalsePositiveRate < 0 || c.FalsePositiveRate >= 1:
		return errors.New("false-positive-rate must be in [0, 1)")
	case c.Updates < 0:
		return errors.New("updates must be >= 0")
	}
	return nil
}
