// Package sim generates synthetic drone detections: a fixed fleet of tracks
// advanced once per tick, with sensor noise, occasional missed detections and
// occasional false positives.
package sim

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/MrPusitCH/drone-ingest-tools/internal/geo"
)

// Params configures a simulation run. All values are validated by the CLI
// before a Simulator is built.
type Params struct {
	CenterLat float64
	CenterLon float64

	NumDrones  int
	RadiusM    float64
	AltitudeM  float64
	WobbleM    float64
	SpeedMinKt float64
	SpeedMaxKt float64

	NoiseLevelM       float64 // GPS jitter standard deviation, meters
	MissRate          float64 // per-track miss probability per tick
	FalsePositiveRate float64 // per-frame false positive probability

	CamID    string
	TokenID  string
	Interval time.Duration // tick length, drives motion integration
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRand sets the random source. Tests inject a seeded source to make runs
// reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) { s.rng = rng }
}

// WithClock sets the time source used for frame timestamps and the linear
// altitude wobble phase.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// Simulator owns the fleet state and produces one Frame per tick.
type Simulator struct {
	params Params
	tracks []*Track
	rng    *rand.Rand
	now    func() time.Time

	frameID int
}

// New creates a Simulator with its fleet initialized from the parameter
// ranges. The fleet size stays fixed for the lifetime of the Simulator.
func New(p Params, opts ...Option) *Simulator {
	s := &Simulator{
		params: p,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracks = NewFleet(p, s.rng)
	return s
}

// Tracks exposes the fleet, primarily for tests and startup logging.
func (s *Simulator) Tracks() []*Track { return s.tracks }

// FramesSent reports how many frames NextFrame has produced so far.
func (s *Simulator) FramesSent() int { return s.frameID }

// NextFrame advances every track one tick and assembles the detection frame.
// A track may be missing from the output (simulated miss) and at most one
// false positive may be appended, so the object count is within
// [0, len(tracks)+1].
func (s *Simulator) NextFrame() Frame {
	p := s.params
	dt := p.Interval.Seconds()
	objects := make([]Object, 0, len(s.tracks)+1)
	now := s.now()

	for _, t := range s.tracks {
		speedMPS := t.BaseMPS * (0.9 + s.rng.Float64()*0.2)
		lat, lon := t.Advance(p, speedMPS, dt)

		if p.NoiseLevelM > 0 {
			northM := s.rng.NormFloat64() * p.NoiseLevelM
			eastM := s.rng.NormFloat64() * p.NoiseLevelM
			lat, lon = geo.Offset(lat, lon, northM, eastM)
		}

		// The wobble phase follows the orbit angle for orbiting tracks and
		// wall time for linear ones, so altitude oscillates either way.
		wobblePhase := t.Angle
		if t.Motion == MotionLinear {
			wobblePhase = float64(now.UnixNano()) / float64(time.Second)
		}
		alt := t.BaseAltM + t.WobbleM*math.Sin(wobblePhase) + (s.rng.Float64()*4 - 2)

		if s.rng.Float64() < p.MissRate {
			continue // missed detection this tick
		}

		objects = append(objects, Object{
			ObjID:   t.ID,
			Type:    t.Type,
			Lat:     round(lat, 7),
			Lng:     round(lon, 7),
			Alt:     round(alt, 2),
			SpeedKt: round(speedMPS/geo.KnotsToMetersPerSecond, 2),
		})
	}

	if s.rng.Float64() < p.FalsePositiveRate {
		objects = append(objects, s.falsePositive())
	}

	frame := Frame{
		FrameID:   strconv.Itoa(s.frameID),
		CamID:     p.CamID,
		TokenID:   p.TokenID,
		Timestamp: formatTimestamp(now),
		ImageInfo: ImageInfo{Width: ImageWidth, Height: ImageHeight},
		Objects:   objects,
	}
	s.frameID++
	return frame
}

// falsePositive synthesizes a detection with no corresponding track,
// uniformly placed within the scene view.
func (s *Simulator) falsePositive() Object {
	p := s.params
	eastM := (s.rng.Float64()*2 - 1) * ViewHalfWidthM
	northM := (s.rng.Float64()*2 - 1) * ViewHalfWidthM

	lat := p.CenterLat + northM/geo.MetersPerDegreeLat
	lon := p.CenterLon + eastM/geo.MetersPerDegreeLon(p.CenterLat)
	speedMPS := s.rng.Float64() * 2.0

	return Object{
		ObjID:   fmt.Sprintf("fp-%06x", s.rng.Intn(1<<24)),
		Type:    "unknown",
		Lat:     round(lat, 7),
		Lng:     round(lon, 7),
		Alt:     round(p.AltitudeM+(s.rng.Float64()*10-5), 2),
		SpeedKt: round(speedMPS/geo.KnotsToMetersPerSecond, 2),
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
