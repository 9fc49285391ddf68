package sim

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"
)

func testParams() Params {
	return Params{
		CenterLat:  13.7563,
		CenterLon:  100.5018,
		NumDrones:  2,
		RadiusM:    120,
		AltitudeM:  120,
		WobbleM:    8,
		SpeedMinKt: 6,
		SpeedMaxKt: 24,
		CamID:      "cam-1",
		TokenID:    "token-1",
		Interval:   500 * time.Millisecond,
	}
}

func newTestSimulator(p Params, seed int64) *Simulator {
	return New(p,
		WithRand(rand.New(rand.NewSource(seed))),
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }))
}

func TestNextFrameExactObjectCount(t *testing.T) {
	// No misses and no false positives: every track appears in every frame.
	p := testParams()
	s := newTestSimulator(p, 1)

	for i := 0; i < 5; i++ {
		frame := s.NextFrame()
		if len(frame.Objects) != p.NumDrones {
			t.Fatalf("frame %d: got %d objects, want %d", i, len(frame.Objects), p.NumDrones)
		}
	}
	if s.FramesSent() != 5 {
		t.Errorf("FramesSent() = %d, want 5", s.FramesSent())
	}
}

func TestNextFrameObjectCountBounds(t *testing.T) {
	p := testParams()
	p.NumDrones = 3
	p.MissRate = 0.5
	p.FalsePositiveRate = 0.5
	p.NoiseLevelM = 3
	s := newTestSimulator(p, 7)

	for i := 0; i < 200; i++ {
		frame := s.NextFrame()
		if n := len(frame.Objects); n < 0 || n > p.NumDrones+1 {
			t.Fatalf("frame %d: object count %d outside [0, %d]", i, n, p.NumDrones+1)
		}
	}
}

func TestNextFrameAllMissed(t *testing.T) {
	p := testParams()
	p.MissRate = 1.0
	s := newTestSimulator(p, 3)

	frame := s.NextFrame()
	if len(frame.Objects) != 0 {
		t.Errorf("with certain misses got %d objects, want 0", len(frame.Objects))
	}
}

func TestNextFrameFalsePositive(t *testing.T) {
	p := testParams()
	p.MissRate = 1.0
	p.FalsePositiveRate = 1.0
	s := newTestSimulator(p, 3)

	frame := s.NextFrame()
	if len(frame.Objects) != 1 {
		t.Fatalf("got %d objects, want exactly the false positive", len(frame.Objects))
	}

	fp := frame.Objects[0]
	if !strings.HasPrefix(fp.ObjID, "fp-") {
		t.Errorf("false positive id = %q, want fp- prefix", fp.ObjID)
	}
	if fp.Type != "unknown" {
		t.Errorf("false positive type = %q, want unknown", fp.Type)
	}
	if fp.SpeedKt < 0 || fp.SpeedKt > 2.0/0.514444+0.01 {
		t.Errorf("false positive speed %v outside expected range", fp.SpeedKt)
	}
}

func TestFrameSequenceAndSchema(t *testing.T) {
	p := testParams()
	s := newTestSimulator(p, 11)

	first := s.NextFrame()
	second := s.NextFrame()
	if first.FrameID != "0" || second.FrameID != "1" {
		t.Errorf("frame ids = %q, %q; want 0, 1", first.FrameID, second.FrameID)
	}
	if first.ImageInfo.Width != ImageWidth || first.ImageInfo.Height != ImageHeight {
		t.Errorf("image info = %+v", first.ImageInfo)
	}
	if first.CamID != p.CamID || first.TokenID != p.TokenID {
		t.Errorf("identity fields = %q, %q", first.CamID, first.TokenID)
	}
	if _, err := time.Parse(time.RFC3339Nano, first.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC 3339: %v", first.Timestamp, err)
	}

	// The backend keys on the fram_id spelling.
	payload, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshaling frame: %v", err)
	}
	for _, key := range []string{`"fram_id"`, `"cam_id"`, `"token_id"`, `"image_info"`, `"objects"`} {
		if !strings.Contains(string(payload), key) {
			t.Errorf("payload missing %s: %s", key, payload)
		}
	}
}

func TestTracksStayNearScene(t *testing.T) {
	p := testParams()
	p.NoiseLevelM = 3
	s := newTestSimulator(p, 5)

	for i := 0; i < 100; i++ {
		frame := s.NextFrame()
		for _, obj := range frame.Objects {
			if math.Abs(obj.Lat-p.CenterLat) > 1 || math.Abs(obj.Lng-p.CenterLon) > 1 {
				t.Fatalf("frame %d: object %s drifted to (%v, %v)", i, obj.ObjID, obj.Lat, obj.Lng)
			}
		}
	}
}

func TestNewFleet(t *testing.T) {
	p := testParams()
	p.NumDrones = 10
	rng := rand.New(rand.NewSource(2))

	tracks := NewFleet(p, rng)
	if len(tracks) != 10 {
		t.Fatalf("got %d tracks, want 10", len(tracks))
	}

	speedMin := p.SpeedMinKt * 0.514444
	speedMax := p.SpeedMaxKt * 0.514444
	for i, tr := range tracks {
		if want := fmt.Sprintf("sim-%d", i+1); tr.ID != want {
			t.Errorf("track %d id = %q, want %q", i, tr.ID, want)
		}
		if tr.Motion != MotionOrbit && tr.Motion != MotionLinear {
			t.Errorf("track %d has motion %q", i, tr.Motion)
		}
		if tr.BaseMPS < speedMin || tr.BaseMPS > speedMax {
			t.Errorf("track %d base speed %v outside [%v, %v]", i, tr.BaseMPS, speedMin, speedMax)
		}
		if tr.Motion == MotionOrbit && (tr.RadiusM < p.RadiusM*0.7 || tr.RadiusM > p.RadiusM*1.3) {
			t.Errorf("track %d orbit radius %v outside band", i, tr.RadiusM)
		}
	}
}

func TestOrbitAngleStaysNormalized(t *testing.T) {
	p := testParams()
	tr := &Track{Motion: MotionOrbit, RadiusM: 50, Angle: 6.0}

	for i := 0; i < 1000; i++ {
		tr.Advance(p, 12, 0.5)
		if tr.Angle < 0 || tr.Angle >= 2*math.Pi {
			t.Fatalf("angle %v escaped [0, 2π)", tr.Angle)
		}
	}
}
