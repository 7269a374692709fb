package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MrWong99/linguaccess/internal/observe"
	"github.com/MrWong99/linguaccess/pkg/pronounce"
	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

// DefaultLanguage is used when the language form field is absent or empty.
const DefaultLanguage = "en-US"

// Form field names of the evaluate endpoint.
const (
	fieldAudio    = "audio"
	fieldExpected = "expected_text"
	fieldLanguage = "language"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling file parts to disk.
const multipartMemory = 8 << 20

// Client-facing error messages.
const (
	detailNotAudio        = "Upload must be an audio file."
	detailMissingAudio    = "Field 'audio' is required."
	detailMissingExpected = "Field 'expected_text' is required."
	detailBadForm         = "Request must be multipart/form-data."
)

type evaluateHandler struct {
	transcriber Transcriber
	scorer      func() *pronounce.Scorer
	metrics     *observe.Metrics
	maxBytes    int64
}

// detailError is an error with an HTTP status, rendered as {"detail": msg}.
type detailError struct {
	status int
	msg    string
}

func (e *detailError) Error() string { return e.msg }

func badRequest(msg string) error { return &detailError{status: http.StatusBadRequest, msg: msg} }

func (h *evaluateHandler) serve(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()
	log := observe.Logger(ctx)

	upload, err := h.parse(c)
	if err != nil {
		var de *detailError
		if errors.As(err, &de) {
			log.Info("rejected evaluation request", "status", de.status, "detail", de.msg)
			c.JSON(de.status, gin.H{"detail": de.msg})
			return
		}
		log.Error("evaluation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	spoken := h.transcriber.Transcribe(ctx, upload.clip, upload.language)
	result := h.scorer().Evaluate(upload.expected, spoken)

	elapsed := time.Since(start)
	h.metrics.RecordEvaluation(ctx, upload.language, result.OverallScore, elapsed)
	log.Info("pronunciation evaluated",
		"language", upload.language,
		"audio_bytes", len(upload.clip.Data),
		"overall_score", result.OverallScore,
		"placeholder", spoken == asr.Placeholder,
		"duration", elapsed,
	)
	c.JSON(http.StatusOK, result)
}

type evaluateUpload struct {
	clip     asr.Clip
	expected string
	language string
}

func (h *evaluateHandler) parse(c *gin.Context) (evaluateUpload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return evaluateUpload{}, &detailError{
				status: http.StatusRequestEntityTooLarge,
				msg:    fmt.Sprintf("Upload exceeds the %d byte limit.", tooLarge.Limit),
			}
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return evaluateUpload{}, badRequest(detailBadForm)
		default:
			return evaluateUpload{}, badRequest("Malformed multipart body: " + err.Error())
		}
	}

	fh, err := c.FormFile(fieldAudio)
	if err != nil {
		return evaluateUpload{}, badRequest(detailMissingAudio)
	}
	expected, ok := c.GetPostForm(fieldExpected)
	if !ok {
		return evaluateUpload{}, badRequest(detailMissingExpected)
	}
	language := strings.TrimSpace(c.PostForm(fieldLanguage))
	if language == "" {
		language = DefaultLanguage
	}

	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		return evaluateUpload{}, badRequest(detailNotAudio)
	}

	data, err := readUpload(fh)
	if err != nil {
		return evaluateUpload{}, fmt.Errorf("read upload: %w", err)
	}
	return evaluateUpload{
		clip:     asr.Clip{Data: data, ContentType: contentType, Filename: fh.Filename},
		expected: expected,
		language: language,
	}, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
