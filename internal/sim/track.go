package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/MrPusitCH/drone-ingest-tools/internal/geo"
)

const (
	// MotionOrbit tracks circle the scene center; position derives from the
	// phase angle each tick.
	MotionOrbit Motion = "orbit"

	// MotionLinear tracks fly a straight line along a fixed bearing and carry
	// their own position.
	MotionLinear Motion = "linear"
)

// Motion is a track's kinematic mode, fixed for the track's lifetime.
type Motion string

// Track is the persistent kinematic state of one simulated drone.
type Track struct {
	ID      string
	Type    string
	Motion  Motion
	Angle   float64 // orbit phase, radians from east
	Bearing float64 // linear course, radians
	RadiusM float64
	BaseMPS float64 // base speed before per-tick jitter

	// Current position, advanced each tick for linear tracks only.
	Lat float64
	Lon float64

	BaseAltM float64
	WobbleM  float64
}

const orbitProbability = 0.6

// NewFleet creates count tracks around the scene center using the configured
// parameter ranges. The fleet is fixed for the run; no track is added or
// removed afterwards.
func NewFleet(p Params, rng *rand.Rand) []*Track {
	speedMin := p.SpeedMinKt * geo.KnotsToMetersPerSecond
	speedMax := p.SpeedMaxKt * geo.KnotsToMetersPerSecond

	tracks := make([]*Track, 0, p.NumDrones)
	for i := 0; i < p.NumDrones; i++ {
		t := Track{
			ID:       fmt.Sprintf("sim-%d", i+1),
			Type:     "unknown",
			BaseMPS:  speedMin + rng.Float64()*(speedMax-speedMin),
			RadiusM:  p.RadiusM,
			BaseAltM: p.AltitudeM,
			WobbleM:  p.WobbleM,
		}

		// Small start offset near the center, up to a quarter radius out.
		startR := rng.Float64() * p.RadiusM * 0.25
		startTheta := rng.Float64() * 2 * math.Pi
		t.Lat = p.CenterLat + (startR*math.Sin(startTheta))/geo.MetersPerDegreeLat
		t.Lon = p.CenterLon + (startR*math.Cos(startTheta))/geo.MetersPerDegreeLon(p.CenterLat)

		if rng.Float64() < orbitProbability {
			t.Motion = MotionOrbit
			t.Angle = rng.Float64() * 2 * math.Pi
			t.RadiusM = p.RadiusM * (0.7 + rng.Float64()*0.6)
		} else {
			t.Motion = MotionLinear
			t.Bearing = rng.Float64() * 2 * math.Pi
		}

		tracks = append(tracks, &t)
	}
	return tracks
}

// Advance moves the track one tick forward at the given jittered speed and
// returns its new true position. Orbit tracks wrap their phase angle into a
// full turn; linear tracks integrate the position directly.
func (t *Track) Advance(p Params, speedMPS, dtSeconds float64) (lat, lon float64) {
	switch t.Motion {
	case MotionOrbit:
		t.Angle = geo.NormalizeAngle(t.Angle + (speedMPS/t.RadiusM)*dtSeconds)
		return geo.PositionOnCircle(p.CenterLat, p.CenterLon, t.RadiusM, t.Angle)

	default:
		northM := speedMPS * dtSeconds * math.Cos(t.Bearing)
		eastM := speedMPS * dtSeconds * math.Sin(t.Bearing)
		t.Lat, t.Lon = geo.Offset(t.Lat, t.Lon, northM, eastM)
		return t.Lat, t.Lon
	}
}
