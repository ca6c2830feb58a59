// Package webform serves the standalone upload form. It overlaps the
// HTTP API functionally but is hosted on its own port, server-rendered.
package webform

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fumisawa/koescribe/internal/api/middleware"
	"github.com/fumisawa/koescribe/internal/presenter"
	"github.com/fumisawa/koescribe/internal/transcribe"
	"github.com/fumisawa/koescribe/internal/workflow"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type languageOption struct {
	Code  string
	Label string
}

// languageOptions mirrors the selectable dropdown; auto-detect first.
var languageOptions = []languageOption{
	{Code: "auto", Label: "Auto-detect"},
	{Code: "ja", Label: "Japanese"},
	{Code: "en", Label: "English"},
	{Code: "zh", Label: "Chinese"},
	{Code: "de", Label: "German"},
	{Code: "fr", Label: "French"},
	{Code: "es", Label: "Spanish"},
	{Code: "ko", Label: "Korean"},
	{Code: "ru", Label: "Russian"},
}

type resultView struct {
	Text           string
	FileName       string
	ProcessingTime string
	Timestamps     string
	ExportName     string
}

type pageData struct {
	Models           []string
	Languages        []languageOption
	SelectedModel    string
	SelectedLanguage string
	Error            string
	Result           *resultView
}

type Server struct {
	transcriber    transcribe.Transcriber
	logger         *zap.Logger
	tmpl           *template.Template
	maxUploadBytes int64
}

func NewServer(transcriber transcribe.Transcriber, logger *zap.Logger, maxUploadBytes int64) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Server{
		transcriber:    transcriber,
		logger:         logger,
		tmpl:           tmpl,
		maxUploadBytes: maxUploadBytes,
	}, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(s.logger))
	r.Get("/", s.showForm)
	r.Post("/transcribe", s.handleTranscribe)
	r.Post("/export", s.handleExport)
	return r
}

func (s *Server) showForm(w http.ResponseWriter, _ *http.Request) {
	s.render(w, pageData{
		SelectedModel:    transcribe.DefaultModel,
		SelectedLanguage: transcribe.AutoLanguage,
	})
}

// handleTranscribe runs one upload through the workflow controller and
// renders the outcome. The submission is awaited for as long as it takes.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.renderError(w, r, "please choose a file to upload")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	tmp, err := os.CreateTemp("", "koescribe-web-*"+ext)
	if err != nil {
		s.renderError(w, r, "failed to store the upload")
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, file)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.renderError(w, r, "failed to store the upload")
		return
	}

	controller := workflow.NewController(s.transcriber, workflow.WithLogger(s.logger))
	if _, err := controller.SelectFile(workflow.Candidate{
		Name:      header.Filename,
		SizeBytes: size,
		MIMEType:  transcribe.MIMETypeForName(header.Filename),
		Path:      tmpPath,
	}); err != nil {
		s.renderError(w, r, "please choose an audio file")
		return
	}

	model := r.FormValue("model")
	if model != "" {
		if err := controller.SetModelSize(model); err != nil {
			s.renderError(w, r, err.Error())
			return
		}
	}
	if err := controller.SetLanguage(r.FormValue("language")); err != nil {
		s.renderError(w, r, err.Error())
		return
	}

	done := make(chan workflow.Transition, 1)
	controller.Subscribe(func(t workflow.Transition) {
		if t.To == workflow.StateDone || t.To == workflow.StateError {
			select {
			case done <- t:
			default:
			}
		}
	})

	if err := controller.Submit(r.Context()); err != nil {
		s.renderError(w, r, err.Error())
		return
	}
	<-done

	if failure, ok := controller.Failure(); ok {
		s.renderError(w, r, failure.Message)
		return
	}

	result, ok := controller.Result()
	if !ok {
		s.renderError(w, r, transcribe.GenericFailureMessage)
		return
	}

	s.render(w, pageData{
		SelectedModel:    controller.ModelSize(),
		SelectedLanguage: controller.Language(),
		Result: &resultView{
			Text:           result.Text,
			FileName:       result.FileName,
			ProcessingTime: presenter.FormatProcessingTime(result.ProcessingTimeSeconds),
			Timestamps:     presenter.FormatTimestamps(result.Segments),
			ExportName:     presenter.ExportFileName(result.FileName),
		},
	})
}

// handleExport streams the transcript back as a UTF-8 attachment named
// by the deterministic export rules.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("text")
	fileName := r.FormValue("fileName")
	if fileName == "" {
		http.Error(w, "missing file name", http.StatusBadRequest)
		return
	}

	exportName := presenter.ExportFileName(fileName)
	if r.FormValue("kind") == "timestamps" {
		exportName = presenter.TimestampedExportFileName(fileName)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exportName}))
	if err := presenter.WriteTranscript(w, text); err != nil {
		s.logger.Warn("failed to stream export", zap.Error(err))
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, message string) {
	model := r.FormValue("model")
	if model == "" {
		model = transcribe.DefaultModel
	}
	language := transcribe.NormalizeLanguage(r.FormValue("language"))

	s.render(w, pageData{
		SelectedModel:    model,
		SelectedLanguage: language,
		Error:            message,
	})
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	data.Models = transcribe.ModelNames()
	data.Languages = languageOptions

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html.tmpl", data); err != nil {
		s.logger.Error("failed to render page", zap.Error(err))
	}
}
