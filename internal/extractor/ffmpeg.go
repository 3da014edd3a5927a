package extractor

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"visionpipe/internal/media"
	"visionpipe/internal/services"
)

// audioExportArgs builds the ffmpeg invocation that exports the leading
// audio as a two channel vorbis stream. The encoder only supports two
// channels, hence the forced downmix.
func audioExportArgs(input, output string, durationSeconds int) []string {
	return []string{
		"-y",
		"-i", input,
		"-qscale:a", "3",
		"-acodec", "vorbis",
		"-map", "a",
		"-strict", "-2",
		"-ss", "0",
		"-t", strconv.Itoa(durationSeconds),
		"-ac", "2",
		output,
	}
}

// frameSplitArgs builds the ffmpeg invocation that samples frames at the
// given cadence into a numbered jpg sequence.
func frameSplitArgs(input, outputPattern string, cadence media.Cadence) []string {
	return []string{
		"-y",
		"-i", input,
		"-filter:v", "fps=fps=" + cadence.String(),
		outputPattern,
	}
}

// thumbnailArgs builds the ffmpeg invocation that scales a frame down to the
// thumbnail width, keeping the aspect ratio.
func thumbnailArgs(input, output string, width int) []string {
	return []string{
		"-y",
		"-i", input,
		"-vf", fmt.Sprintf("scale=%d:-1", width),
		output,
	}
}

func runFFmpeg(ctx context.Context, binary string, args []string) error {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if len(detail) > 400 {
			detail = detail[len(detail)-400:]
		}
		return services.Wrap(services.ErrStageIO, "extractor", "ffmpeg",
			detail, err)
	}
	return nil
}

// parseFrameNumber extracts the 1-based sequence number from a frame file
// name like "12.jpg".
func parseFrameNumber(filename string) (int, error) {
	base := filename
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	name, _, _ := strings.Cut(base, ".")
	number, err := strconv.Atoi(name)
	if err != nil || number < 1 {
		return 0, fmt.Errorf("frame file %q has no sequence number", filename)
	}
	return number, nil
}

// middleFrame picks the representative frame used for the video thumbnail:
// the one in the middle of the sorted sequence.
func middleFrame(files []string) string {
	if len(files) == 0 {
		return ""
	}
	sorted := append([]string(nil), files...)
	sort.Slice(sorted, func(i, j int) bool {
		a, errA := parseFrameNumber(sorted[i])
		b, errB := parseFrameNumber(sorted[j])
		if errA != nil || errB != nil {
			return sorted[i] < sorted[j]
		}
		return a < b
	})
	idx := (len(sorted) + 1) / 2
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
