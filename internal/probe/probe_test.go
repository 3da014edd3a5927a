package probe

import "testing"

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1280, Height: 720},
			{CodecType: "audio", Channels: 2},
		},
		Format: Format{
			Duration:   "123.45",
			FormatName: "mov,mp4,m4a",
		},
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	width, height := result.Dimensions()
	if width != 1280 || height != 720 {
		t.Fatalf("unexpected dimensions: %dx%d", width, height)
	}
	if !result.HasAudio() {
		t.Fatal("expected audio stream detected")
	}

	meta := result.Metadata()
	if meta.Duration != 123.45 || meta.Width != 1280 || meta.Format != "mov,mp4,m4a" {
		t.Fatalf("unexpected metadata: %#v", meta)
	}
}

func TestDurationFallsBackToVideoStream(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Duration: "42.5"}},
	}
	if result.DurationSeconds() != 42.5 {
		t.Fatalf("expected stream duration fallback, got %v", result.DurationSeconds())
	}
}

func TestImageProbeHasNoAudio(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", CodecName: "mjpeg", Width: 800, Height: 600}},
		Format:  Format{FormatName: "image2"},
	}
	if result.HasAudio() {
		t.Fatal("still image must not report audio")
	}
	if d := result.DurationSeconds(); d != 0 {
		t.Fatalf("expected zero duration for image, got %v", d)
	}
}

func TestParseFloatHandlesInvalid(t *testing.T) {
	if parseFloat("bad") != 0 {
		t.Fatal("expected invalid numbers to parse as 0")
	}
	if parseFloat(" 7.5 ") != 7.5 {
		t.Fatal("expected whitespace to be trimmed")
	}
}
