package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// SelectedFile is one user-chosen audio resource. Path is empty for
// candidates that arrive as in-memory uploads.
type SelectedFile struct {
	Name      string
	SizeBytes int64
	MIMEType  string
	Path      string
}

// Open returns a reader over the file contents.
func (f SelectedFile) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Request carries everything one submission needs. It is built at
// submission time and never mutated afterwards.
type Request struct {
	File      SelectedFile
	ModelSize string
	Language  string
}

// Segment is one timed slice of the transcript, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is a completed transcription.
type Result struct {
	Text                  string
	FileName              string
	ProcessingTimeSeconds float64
	Segments              []Segment
}

// Transcriber converts one audio file into text. Implementations may take
// seconds to minutes; callers must not block their own responsiveness.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// audioMIMETypes maps the supported audio extensions to their media types.
var audioMIMETypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".wma":  "audio/x-ms-wma",
}

// MIMETypeForName guesses the media type from a file name's extension.
// Unknown extensions yield application/octet-stream.
func MIMETypeForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := audioMIMETypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// IsAudioMIME reports whether the media type falls in the audio category.
func IsAudioMIME(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "audio/")
}
