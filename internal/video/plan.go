package video

import "math"

// Plan describes which source frames to keep: every Step-th frame in
// [StartFrame, EndFrame), capped at MaxFrames when positive.
type Plan struct {
	StartFrame int
	EndFrame   int
	Step       int
	MaxFrames  int
}

// BuildPlan derives the selection from time bounds and a sampling interval.
// Zero startTime means the first frame; zero endTime means end of stream;
// zero interval selects every frame; zero maxFrames is unlimited. The bounds
// are clamped so that at least one frame is always in range.
func BuildPlan(info *Info, startTime, endTime, interval float64, maxFrames int) Plan {
	start := 0
	if startTime > 0 {
		start = int(startTime * info.FPS)
	}
	start = clamp(start, 0, info.TotalFrames-1)

	end := info.TotalFrames
	if endTime > 0 {
		end = int(endTime * info.FPS)
	}
	end = clamp(end, start+1, info.TotalFrames)

	step := 1
	if interval > 0 {
		step = int(math.Floor(interval * info.FPS))
		if step < 1 {
			step = 1
		}
	}

	return Plan{StartFrame: start, EndFrame: end, Step: step, MaxFrames: maxFrames}
}

// Frames lists the selected source frame numbers, in order.
func (p Plan) Frames() []int {
	var frames []int
	for n := p.StartFrame; n < p.EndFrame; n += p.Step {
		if p.MaxFrames > 0 && len(frames) >= p.MaxFrames {
			break
		}
		frames = append(frames, n)
	}
	return frames
}

// Count reports how many frames the plan selects.
func (p Plan) Count() int {
	return len(p.Frames())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
