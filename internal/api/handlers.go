package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"visionpipe/internal/logging"
	"visionpipe/internal/media"
	"visionpipe/internal/services"
	"visionpipe/internal/speech"
	"visionpipe/internal/store"
	"visionpipe/internal/summary"
)

// maxCallbackBody bounds transcription callback payloads.
const maxCallbackBody = 32 << 20

// maxUploadMemory is the in-memory portion of multipart uploads; larger
// files spill to disk.
const maxUploadMemory = 64 << 20

type handlers struct {
	store    *store.Store
	builder  *summary.Builder
	receiver *speech.Receiver
	secret   string
	logger   *slog.Logger
}

func (h *handlers) register(router chi.Router) {
	router.Get("/stt/results", h.callbackChallenge)
	router.Post("/stt/results", h.callbackResults)

	router.Route("/api", func(r chi.Router) {
		r.Get("/status", h.status)

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", h.listVideos)
			r.Post("/", h.uploadVideo)
			r.Get("/{id}", h.videoSummary)
			r.Get("/{id}/related", h.videoRelated)
			r.Get("/{id}/thumbnail.jpg", h.videoThumbnail)
			r.Post("/{id}/reset", h.resetVideo)
			r.Post("/{id}/reset-images", h.resetImages)
			r.Post("/{id}/reset-audio", h.resetAudio)
			r.Delete("/{id}", h.deleteVideo)
		})

		r.Route("/images", func(r chi.Router) {
			r.Get("/", h.listImages)
			r.Post("/", h.uploadImage)
			r.Get("/{id}.jpg", h.imageContent)
			r.Get("/{id}", h.getImage)
			r.Post("/{id}/reset", h.resetImage)
		})
	})
}

// callbackChallenge answers the transcription service's callback URL
// registration. The service sends a random challenge string signed with the
// shared secret and expects it echoed back verbatim.
func (h *handlers) callbackChallenge(w http.ResponseWriter, r *http.Request) {
	challenge := r.URL.Query().Get("challenge_string")
	if challenge == "" {
		h.writeError(w, http.StatusBadRequest, "challenge_string required")
		return
	}
	signature := r.Header.Get("X-Callback-Signature")
	if !speech.VerifySignature(h.secret, []byte(challenge), signature) {
		h.logger.Warn("callback challenge with bad signature")
		h.writeText(w, http.StatusInternalServerError, "Bad signature")
		return
	}
	h.writeText(w, http.StatusOK, challenge)
}

// callbackResults accepts a finished recognition job. The signature covers
// the raw request body, so the body is verified before it is decoded.
func (h *handlers) callbackResults(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBody))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	signature := r.Header.Get("X-Callback-Signature")
	if !speech.VerifySignature(h.secret, body, signature) {
		h.logger.Warn("callback results with bad signature")
		h.writeText(w, http.StatusInternalServerError, "Bad signature")
		return
	}

	var payload speech.CallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}
	if err := h.receiver.Accept(r.Context(), payload); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) listVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.store.Videos(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, videos)
}

func (h *handlers) uploadVideo(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, media.TypeVideo, media.AttachmentVideo, "video/mp4")
}

func (h *handlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, media.TypeImage, media.AttachmentImage, "image/jpeg")
}

// upload ingests one media file: a new document plus its source attachment.
// The attachment write lands after the insert, so the change feed sees the
// document only once it is ready for dispatch.
func (h *handlers) upload(w http.ResponseWriter, r *http.Request, docType media.Type, attachment, defaultContentType string) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.writeError(w, http.StatusBadRequest, "multipart form required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	doc := &media.Document{
		Type:          docType,
		Title:         title,
		LanguageModel: r.FormValue("language_model"),
	}
	ctx := r.Context()
	if err := h.store.Insert(ctx, doc); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.store.Attach(ctx, doc, attachment, contentType, file); err != nil {
		h.respondError(w, err)
		return
	}
	h.logger.Info("media uploaded",
		logging.String(logging.FieldDocumentID, doc.ID),
		logging.String("type", string(docType)),
		logging.String("title", title),
	)
	h.writeJSON(w, http.StatusCreated, doc)
}

func (h *handlers) videoSummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.builder.Build(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *handlers) videoRelated(w http.ResponseWriter, r *http.Request) {
	related, err := h.store.RelatedDocuments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, related)
}

func (h *handlers) videoThumbnail(w http.ResponseWriter, r *http.Request) {
	h.serveAttachment(w, r, chi.URLParam(r, "id"), media.AttachmentThumbnail)
}

func (h *handlers) resetVideo(w http.ResponseWriter, r *http.Request) {
	h.runReset(w, r, h.store.ResetVideo)
}

func (h *handlers) resetImages(w http.ResponseWriter, r *http.Request) {
	h.runReset(w, r, h.store.ResetImages)
}

func (h *handlers) resetAudio(w http.ResponseWriter, r *http.Request) {
	h.runReset(w, r, h.store.ResetAudio)
}

func (h *handlers) resetImage(w http.ResponseWriter, r *http.Request) {
	h.runReset(w, r, h.store.ResetImage)
}

func (h *handlers) deleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteVideo(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.store.StandaloneImages(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, images)
}

func (h *handlers) getImage(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if doc.Type != media.TypeImage {
		h.writeError(w, http.StatusNotFound, "not found")
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

func (h *handlers) imageContent(w http.ResponseWriter, r *http.Request) {
	h.serveAttachment(w, r, chi.URLParam(r, "id"), media.AttachmentImage)
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	status, err := h.store.Status(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

type resetFunc func(ctx context.Context, id string) error

func (h *handlers) runReset(w http.ResponseWriter, r *http.Request, reset resetFunc) {
	id := chi.URLParam(r, "id")
	if err := reset(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.logger.Info("reset applied",
		logging.String(logging.FieldDocumentID, id),
		logging.String("path", r.URL.Path),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) serveAttachment(w http.ResponseWriter, r *http.Request, docID, name string) {
	doc, err := h.store.Get(r.Context(), docID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	meta, ok := doc.Attachments[name]
	if !ok {
		h.writeError(w, http.StatusNotFound, "not found")
		return
	}
	content, _, err := h.store.ReadAttachment(r.Context(), docID, name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", meta.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		h.logger.Warn("attachment write aborted",
			logging.String(logging.FieldDocumentID, docID),
			logging.Error(err),
		)
	}
}

func (h *handlers) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrAttachmentNotFound),
		errors.Is(err, services.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", logging.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		h.logger.Warn("response write failed", logging.Error(err))
	}
}

func (h *handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *handlers) writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		h.logger.Warn("response write failed", logging.Error(err))
	}
}
