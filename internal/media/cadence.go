package media

import (
	"fmt"
	"math"
)

// Cadence is the frame sampling rate expressed as a typed rational: Frames
// frames every IntervalSeconds seconds. Keeping numerator and denominator
// explicit avoids any string or expression evaluation of the rate.
type Cadence struct {
	Frames          int
	IntervalSeconds int
}

// CadenceFor computes the sampling cadence for a video duration so that
// roughly targetFrames evenly spaced frames cover the whole video: one
// frame per ceil(duration/targetFrames) seconds.
func CadenceFor(durationSeconds float64, targetFrames int) Cadence {
	if targetFrames <= 0 {
		targetFrames = 15
	}
	interval := int(math.Ceil(durationSeconds / float64(targetFrames)))
	if interval < 1 {
		interval = 1
	}
	return Cadence{Frames: 1, IntervalSeconds: interval}
}

// String renders the cadence in the "frames/seconds" form the ffmpeg fps
// filter accepts.
func (c Cadence) String() string {
	return fmt.Sprintf("%d/%d", c.Frames, c.IntervalSeconds)
}

// SecondsPerFrame returns the time between two sampled frames.
func (c Cadence) SecondsPerFrame() float64 {
	if c.Frames == 0 {
		return 0
	}
	return float64(c.IntervalSeconds) / float64(c.Frames)
}

// TimecodeFor returns the offset in seconds of the 1-based frameNumber.
func (c Cadence) TimecodeFor(frameNumber int) float64 {
	return float64(frameNumber-1) * c.SecondsPerFrame()
}
