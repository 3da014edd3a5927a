package media

import "fmt"

// State is the explicit lifecycle position of a document. The zero value is
// valid: documents written before the state field existed rely solely on
// the field-presence projections.
type State string

const (
	// Video states.
	StateUploaded          State = "uploaded"
	StateMetadataExtracted State = "metadata_extracted"
	StateFramesExtracting  State = "frames_extracting"
	StateFramesExtracted   State = "frames_extracted"

	// Image states.
	StateCreated  State = "created"
	StateAnalyzed State = "analyzed"

	// Audio states.
	StateAudioExtracted         State = "audio_extracted"
	StateTranscriptionSubmitted State = "transcription_submitted"
	StateTranscriptReceived     State = "transcript_received"
	StateTextAnalyzed           State = "text_analyzed"
)

var stateTransitions = map[Type]map[State]State{
	TypeVideo: {
		StateUploaded:          StateMetadataExtracted,
		StateMetadataExtracted: StateFramesExtracting,
		StateFramesExtracting:  StateFramesExtracted,
	},
	TypeImage: {
		StateCreated: StateAnalyzed,
	},
	TypeAudio: {
		StateAudioExtracted:         StateTranscriptionSubmitted,
		StateTranscriptionSubmitted: StateTranscriptReceived,
		StateTranscriptReceived:     StateTextAnalyzed,
	},
}

// InitialState returns the state a freshly created document of the given
// type starts in.
func InitialState(t Type) State {
	switch t {
	case TypeVideo:
		return StateUploaded
	case TypeImage:
		return StateCreated
	case TypeAudio:
		return StateAudioExtracted
	default:
		return ""
	}
}

// Advance moves the document to the requested state, validating the
// transition. Advancing to the current state is an idempotent no-op; an
// empty current state is treated as the type's initial state.
func (d *Document) Advance(to State) error {
	if d.State == to {
		return nil
	}
	from := d.State
	if from == "" {
		from = InitialState(d.Type)
		if from == to {
			d.State = to
			return nil
		}
	}
	if stateTransitions[d.Type][from] != to {
		return fmt.Errorf("invalid %s state transition %q -> %q", d.Type, from, to)
	}
	d.State = to
	return nil
}

// Complete reports whether the video and all of its derived documents have
// finished processing. Frames and audio are supplied by the caller; a nil
// audio means the video has no audio track.
func Complete(video *Document, frames []*Document, audio *Document) bool {
	if video == nil || !video.HasMetadata() {
		return false
	}
	for _, frame := range frames {
		if !frame.HasAnalysis() {
			return false
		}
	}
	if audio != nil && !audio.HasAnalysis() {
		return false
	}
	return true
}
