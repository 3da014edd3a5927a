package media

// Analysis holds the merged results of the external analysis services.
// Image documents carry size/face/keyword fields; audio documents carry
// the text-analysis fields. Every field is optional: a failed service call
// only omits its field.
type Analysis struct {
	Size          *ImageSize `json:"size,omitempty"`
	FaceDetection []Face     `json:"face_detection,omitempty"`
	ImageKeywords []Keyword  `json:"image_keywords,omitempty"`

	Entities []TextItem         `json:"entities,omitempty"`
	Concepts []TextItem         `json:"concepts,omitempty"`
	Keywords []TextItem         `json:"keywords,omitempty"`
	Emotions map[string]float64 `json:"emotions,omitempty"`
}

// ImageSize is the raw pixel dimensions of an analyzed image.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Face is one detection returned by the face detection service.
type Face struct {
	Location FaceLocation `json:"face_location"`
	Identity *Identity    `json:"identity,omitempty"`
	Age      *AgeRange    `json:"age,omitempty"`
	Gender   string       `json:"gender,omitempty"`
}

// FaceLocation is the bounding box of a detection, in pixels.
type FaceLocation struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Identity names a recognized face with the service's confidence.
type Identity struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// AgeRange is the estimated age interval for a detected face.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Keyword is one classifier label for an image.
type Keyword struct {
	Class string  `json:"class"`
	Score float64 `json:"score"`
}

// TextItem is one entity, concept, or keyword extracted from a transcript.
type TextItem struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}

// Transcript is the raw result delivered by the speech recognition service.
type Transcript struct {
	Results []TranscriptResult `json:"results"`
}

// TranscriptResult is one recognized utterance with ranked alternatives.
type TranscriptResult struct {
	Final        bool                    `json:"final"`
	Alternatives []TranscriptAlternative `json:"alternatives"`
}

// TranscriptAlternative is one candidate transcription of an utterance.
type TranscriptAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence,omitempty"`
}

// FullText concatenates the best alternative of every utterance into one
// text blob for text analysis.
func (t *Transcript) FullText() string {
	if t == nil {
		return ""
	}
	var text string
	for _, result := range t.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		text += result.Alternatives[0].Transcript + ". "
	}
	return text
}
