package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"visionpipe/internal/api"
	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/speech"
	"visionpipe/internal/testsupport"
)

func TestCallbackChallengeEcho(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv := api.New(cfg, st, logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	challenge := "register-me-7391"
	target := ts.URL + "/stt/results?challenge_string=" + url.QueryEscape(challenge)

	req, _ := http.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("X-Callback-Signature", speech.Signature(cfg.SpeechToText.CallbackSecret, []byte(challenge)))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("challenge request: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(body) != challenge {
		t.Fatalf("challenge must be echoed verbatim, got %q", body)
	}
}

func TestCallbackChallengeBadSignature(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv := api.New(cfg, st, logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/stt/results?challenge_string=abc", nil)
	req.Header.Set("X-Callback-Signature", "bogus")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("challenge request: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if string(body) != "Bad signature" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestCallbackResultsStoresTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv := api.New(cfg, st, logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	video := testsupport.NewVideo(t, st, "Talk")
	audio := testsupport.NewAudio(t, st, video.ID)

	payload := speech.CallbackPayload{
		UserToken: audio.ID,
		Results: []media.Transcript{{
			Results: []media.TranscriptResult{{
				Final: true,
				Alternatives: []media.TranscriptAlternative{
					{Transcript: "hello pipeline", Confidence: 0.92},
				},
			}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/stt/results", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Callback-Signature", speech.Signature(cfg.SpeechToText.CallbackSecret, body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("results request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	stored := testsupport.MustGet(t, st, audio.ID)
	if !stored.HasTranscript() {
		t.Fatal("transcript must be stored")
	}
	if got := stored.Transcript.FullText(); got != "hello pipeline. " {
		t.Fatalf("unexpected transcript text %q", got)
	}
}

func TestCallbackResultsRejectsBadSignature(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv := api.New(cfg, st, logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	video := testsupport.NewVideo(t, st, "Talk")
	audio := testsupport.NewAudio(t, st, video.ID)
	body := []byte(`{"user_token":"` + audio.ID + `","results":[{"results":[]}]}`)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/stt/results", bytes.NewReader(body))
	req.Header.Set("X-Callback-Signature", "forged")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("results request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if testsupport.MustGet(t, st, audio.ID).HasTranscript() {
		t.Fatal("forged delivery must not be stored")
	}
}

func TestUploadVideoCreatesDocumentWithAttachment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv := api.New(cfg, st, logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	if err := writer.WriteField("title", "Launch Event"); err != nil {
		t.Fatalf("write title field: %v", err)
	}
	part, err := writer.CreateFormFile("file", "launch.mp4")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("not really mp4 bytes")); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	writer.Close()

	resp, err := http.Post(ts.URL+"/api/videos", writer.FormDataContentType(), &form)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var doc media.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.ID == "" || doc.Type != media.TypeVideo || doc.Title != "Launch Event" {
		t.Fatalf("unexpected document %+v", doc)
	}

	stored := testsupport.MustGet(t, st, doc.ID)
	if !stored.HasAttachment(media.AttachmentVideo) {
		t.Fatal("uploaded content must be attached")
	}
	content, length, err := st.ReadAttachment(context.Background(), doc.ID, media.AttachmentVideo)
	if err != nil {
		t.Fatalf("ReadAttachment: %v", err)
	}
	defer content.Close()
	if length != int64(len("not really mp4 bytes")) {
		t.Fatalf("unexpected attachment length %d", length)
	}
}

func TestVideoSummaryNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv := api.New(cfg, st, logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/videos/no-such-id")
	if err != nil {
		t.Fatalf("summary request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestVideoSummaryIncludesFrames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv := api.New(cfg, st, logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx := context.Background()
	video := testsupport.NewVideo(t, st, "Demo")
	video.Metadata = &media.Metadata{Duration: 42}
	if err := st.Update(ctx, video); err != nil {
		t.Fatalf("Update video: %v", err)
	}
	testsupport.NewFrame(t, st, video.ID, 1, 0)
	testsupport.NewFrame(t, st, video.ID, 2, 10)

	resp, err := http.Get(ts.URL + "/api/videos/" + video.ID)
	if err != nil {
		t.Fatalf("summary request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Video     *media.Document   `json:"video"`
		Images    []*media.Document `json:"images"`
		Cacheable bool              `json:"cacheable"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if result.Video == nil || result.Video.ID != video.ID {
		t.Fatalf("summary must include the video, got %+v", result.Video)
	}
	if len(result.Images) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(result.Images))
	}
	if result.Cacheable {
		t.Fatal("unanalyzed frames must keep the summary uncacheable")
	}
}

func TestImageContentServed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv := api.New(cfg, st, logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx := context.Background()
	video := testsupport.NewVideo(t, st, "Demo")
	frame := testsupport.NewFrame(t, st, video.ID, 1, 0)
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02}
	if err := st.Attach(ctx, frame, media.AttachmentImage, "image/jpeg", bytes.NewReader(jpeg)); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/images/" + frame.ID + ".jpg")
	if err != nil {
		t.Fatalf("image request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/jpeg" {
		t.Fatalf("unexpected content type %q", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(body, jpeg) {
		t.Fatal("served bytes must match the attachment")
	}
}

func TestResetAndDeleteVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv := api.New(cfg, st, logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx := context.Background()
	video := testsupport.NewVideo(t, st, "Demo")
	video.Metadata = &media.Metadata{Duration: 42}
	video.FrameCount = 2
	if err := st.Update(ctx, video); err != nil {
		t.Fatalf("Update video: %v", err)
	}
	testsupport.NewFrame(t, st, video.ID, 1, 0)

	resp, err := http.Post(ts.URL+"/api/videos/"+video.ID+"/reset", "", nil)
	if err != nil {
		t.Fatalf("reset request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if testsupport.MustGet(t, st, video.ID).HasMetadata() {
		t.Fatal("reset must clear metadata")
	}
	frames, err := st.VideoFrames(ctx, video.ID)
	if err != nil {
		t.Fatalf("VideoFrames: %v", err)
	}
	if len(frames) != 0 {
		t.Fatal("reset must delete derived frames")
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/videos/"+video.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	listResp, err := http.Get(ts.URL + "/api/videos/")
	if err != nil {
		t.Fatalf("list request: %v", err)
	}
	defer listResp.Body.Close()
	var videos []*media.Document
	if err := json.NewDecoder(listResp.Body).Decode(&videos); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(videos) != 0 {
		t.Fatalf("deleted video must not be listed, got %d", len(videos))
	}
}

func TestStatusReportsCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv := api.New(cfg, st, logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx := context.Background()
	video := testsupport.NewVideo(t, st, "Demo")
	video.Metadata = &media.Metadata{Duration: 10}
	if err := st.Update(ctx, video); err != nil {
		t.Fatalf("Update video: %v", err)
	}
	testsupport.NewFrame(t, st, video.ID, 1, 0)

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var status map[string]struct {
		Total       int `json:"total"`
		Processed   int `json:"processed"`
		Unprocessed int `json:"unprocessed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status["video"].Processed != 1 {
		t.Fatalf("expected one processed video, got %+v", status["video"])
	}
	if status["image"].Unprocessed != 1 {
		t.Fatalf("expected one unprocessed image, got %+v", status["image"])
	}
}
