package sim

import "time"

// Scene image dimensions reported in every frame. The backend uses them to
// scale detections onto its map view.
const (
	ImageWidth  = 1920
	ImageHeight = 1080

	// ViewHalfWidthM is how many meters from the scene center the edge of the
	// view represents. False positives are placed uniformly within this span.
	ViewHalfWidthM = 600.0
)

// Object is one detection inside a frame.
type Object struct {
	ObjID   string  `json:"obj_id"`
	Type    string  `json:"type"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Alt     float64 `json:"alt"`
	SpeedKt float64 `json:"speed_kt"`
}

// ImageInfo describes the frame's nominal sensor resolution.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Frame is one telemetry message as the ingest endpoint expects it. The
// fram_id key spelling is part of the backend contract.
type Frame struct {
	FrameID   string    `json:"fram_id"`
	CamID     string    `json:"cam_id"`
	TokenID   string    `json:"token_id"`
	Timestamp string    `json:"timestamp"`
	ImageInfo ImageInfo `json:"image_info"`
	Objects   []Object  `json:"objects"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
