package summary

import "testing"

func group(scores ...float64) []Occurrence {
	sightings := make([]Occurrence, 0, len(scores))
	for _, score := range scores {
		sightings = append(sightings, Occurrence{Name: "x", Score: score})
	}
	return sightings
}

func TestFilterOccurrencesDropsRareGroups(t *testing.T) {
	groups := map[string][]Occurrence{
		"rare": group(0.99, 0.98),
	}
	if got := FilterOccurrences(groups, FaceThresholds); len(got) != 0 {
		t.Fatalf("two sightings must not pass a 3-occurrence minimum, got %+v", got)
	}
}

func TestFilterOccurrencesRequiresConfidentSightings(t *testing.T) {
	// Three sightings but only one above the 0.85 face threshold.
	groups := map[string][]Occurrence{
		"weak": group(0.90, 0.50, 0.40),
	}
	if got := FilterOccurrences(groups, FaceThresholds); len(got) != 0 {
		t.Fatalf("one confident sighting must not pass a 2-sighting minimum, got %+v", got)
	}

	// Three sightings, two confident: kept, represented by the best.
	groups = map[string][]Occurrence{
		"strong": group(0.86, 0.93, 0.40),
	}
	got := FilterOccurrences(groups, FaceThresholds)
	if len(got) != 1 || got[0].Score != 0.93 {
		t.Fatalf("expected best sighting kept, got %+v", got)
	}
}

func TestFilterOccurrencesSortsByScore(t *testing.T) {
	groups := map[string][]Occurrence{
		"a": {{Name: "a", Score: 0.70}},
		"b": {{Name: "b", Score: 0.95}},
		"c": {{Name: "c", Score: 0.80}},
	}
	got := FilterOccurrences(groups, KeywordThresholds)
	if len(got) != 3 {
		t.Fatalf("expected all groups kept, got %+v", got)
	}
	if got[0].Name != "b" || got[1].Name != "c" || got[2].Name != "a" {
		t.Fatalf("expected descending score order, got %+v", got)
	}
}

func TestFilterOccurrencesTruncatesToMaxCount(t *testing.T) {
	groups := make(map[string][]Occurrence)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		groups[name] = []Occurrence{{Name: name, Score: 0.9}}
	}
	got := FilterOccurrences(groups, KeywordThresholds)
	if len(got) != 5 {
		t.Fatalf("expected truncation to 5 keywords, got %d", len(got))
	}
}

func TestFilterOccurrencesBelowScoreDropped(t *testing.T) {
	groups := map[string][]Occurrence{
		"faint": group(0.30),
	}
	if got := FilterOccurrences(groups, KeywordThresholds); len(got) != 0 {
		t.Fatalf("sighting below minimum score must be dropped, got %+v", got)
	}
}
