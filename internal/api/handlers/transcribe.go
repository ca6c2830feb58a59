package handlers

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fumisawa/koescribe/internal/transcribe"
)

// supportedExtensions is the server-side allow-list. It is broader than
// the client's audio check: the engine also demuxes common video
// containers, so those pass through.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".aac":  true,
	".wma":  true,
	".mp4":  true,
	".avi":  true,
	".mov":  true,
}

func supportedExtensionList() string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

// TranscriptionResponse is the success body for POST /api/transcribe.
type TranscriptionResponse struct {
	Text           string               `json:"text"`
	FileName       string               `json:"fileName"`
	ProcessingTime float64              `json:"processingTime"`
	Segments       []transcribe.Segment `json:"segments,omitempty"`
}

type TranscribeHandler struct {
	engine transcribe.Transcriber
	logger *zap.Logger
}

func NewTranscribeHandler(engine transcribe.Transcriber, logger *zap.Logger) *TranscribeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscribeHandler{engine: engine, logger: logger}
}

// Transcribe accepts one multipart upload with "model" and "language"
// fields, runs the engine, and returns the transcript.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "missing or oversized file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !supportedExtensions[ext] {
		jsonError(w, fmt.Sprintf("unsupported file format %s (supported: %s)", ext, supportedExtensionList()), http.StatusBadRequest)
		return
	}

	model := r.FormValue("model")
	if model == "" {
		model = transcribe.DefaultModel
	}
	if err := transcribe.ValidateModel(model); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	language := transcribe.NormalizeLanguage(r.FormValue("language"))
	if err := transcribe.ValidateLanguage(language); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The engine reads from disk, so the upload is spooled to a temp
	// file carrying the original extension.
	tmp, err := os.CreateTemp("", "koescribe-upload-*"+ext)
	if err != nil {
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, file)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	h.logger.Info("transcription requested",
		zap.String("file", header.Filename),
		zap.Int64("size_bytes", size),
		zap.String("model", model),
		zap.String("language", language),
	)

	result, err := h.engine.Transcribe(r.Context(), transcribe.Request{
		File: transcribe.SelectedFile{
			Name:      header.Filename,
			SizeBytes: size,
			MIMEType:  transcribe.MIMETypeForName(header.Filename),
			Path:      tmpPath,
		},
		ModelSize: model,
		Language:  language,
	})
	if err != nil {
		h.logger.Warn("transcription failed", zap.String("file", header.Filename), zap.Error(err))
		jsonError(w, fmt.Sprintf("transcription failed: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, TranscriptionResponse{
		Text:           result.Text,
		FileName:       header.Filename,
		ProcessingTime: math.Round(result.ProcessingTimeSeconds*100) / 100,
		Segments:       result.Segments,
	})
}
