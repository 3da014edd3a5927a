package summary

import "sort"

// Occurrence is one sighting of a face identity or an image keyword on a
// frame.
type Occurrence struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	ImageID  string  `json:"image_id,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
	Timecode float64 `json:"timecode"`
}

// Thresholds tunes the occurrence filter. A group of sightings survives when
// it has at least MinOccurrence members and at least MinScoreOccurrence of
// them score MinScore or better. MaxCount truncates the final list; zero
// means unbounded.
type Thresholds struct {
	MinOccurrence      int
	MinScore           float64
	MinScoreOccurrence int
	MaxCount           int
}

// Default thresholds, tuned for roughly fifteen frames per video.
var (
	FaceThresholds    = Thresholds{MinOccurrence: 3, MinScore: 0.85, MinScoreOccurrence: 2}
	KeywordThresholds = Thresholds{MinOccurrence: 1, MinScore: 0.60, MinScoreOccurrence: 1, MaxCount: 5}
)

// FilterOccurrences reduces grouped sightings to at most one representative
// per group: the best scored sighting of every group that passes the
// thresholds, ordered by descending score.
func FilterOccurrences(groups map[string][]Occurrence, t Thresholds) []Occurrence {
	result := make([]Occurrence, 0, len(groups))
	for _, sightings := range groups {
		if len(sightings) < t.MinOccurrence {
			continue
		}
		aboveThreshold := 0
		for _, sighting := range sightings {
			if sighting.Score >= t.MinScore {
				aboveThreshold++
			}
		}
		if aboveThreshold < t.MinScoreOccurrence {
			continue
		}
		best := sightings[0]
		for _, sighting := range sightings[1:] {
			if sighting.Score > best.Score {
				best = sighting
			}
		}
		result = append(result, best)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	if t.MaxCount > 0 && len(result) > t.MaxCount {
		result = result[:t.MaxCount]
	}
	return result
}
