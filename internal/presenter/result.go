package presenter

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fumisawa/koescribe/internal/clipboard"
	"github.com/fumisawa/koescribe/internal/transcribe"
)

const (
	exportSuffix            = "_transcript.txt"
	timestampedExportSuffix = "_transcript_timestamps.txt"
)

// ExportFileName derives the transcript export name from the original
// audio file name: the final extension is stripped, the suffix appended.
// Deterministic and independent of locale.
func ExportFileName(original string) string {
	return strings.TrimSuffix(original, filepath.Ext(original)) + exportSuffix
}

// TimestampedExportFileName names the segment-timestamp export.
func TimestampedExportFileName(original string) string {
	return strings.TrimSuffix(original, filepath.Ext(original)) + timestampedExportSuffix
}

// FormatProcessingTime renders whole seconds as "M min S sec" using
// integer division and remainder.
func FormatProcessingTime(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d min %d sec", total/60, total%60)
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm.
func FormatTimestamp(seconds float64) string {
	ms := int(math.Round(seconds * 1000))
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// FormatTimestamps renders segments as one bracketed time range per line.
func FormatTimestamps(segments []transcribe.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		fmt.Fprintf(&b, "[%s --> %s] %s\n", FormatTimestamp(s.Start), FormatTimestamp(s.End), strings.TrimSpace(s.Text))
	}
	return b.String()
}

// WriteTranscript writes the transcript verbatim as UTF-8, byte-exact.
func WriteTranscript(w io.Writer, text string) error {
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// Result presents a completed transcription: verbatim text, clipboard
// copy, and plain-text export.
type Result struct {
	Logger *zap.Logger
	CopyFn func(ctx context.Context, value string) error
}

func NewResult(logger *zap.Logger) *Result {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Result{Logger: logger, CopyFn: clipboard.CopyText}
}

// Copy places the exact transcript text on the clipboard. A failure is
// logged and reported to the caller, but is never a blocking error.
func (r *Result) Copy(ctx context.Context, result *transcribe.Result) bool {
	copyFn := r.CopyFn
	if copyFn == nil {
		copyFn = clipboard.CopyText
	}

	if err := copyFn(ctx, result.Text); err != nil {
		r.Logger.Warn("failed to copy transcript to clipboard", zap.Error(err))
		return false
	}
	return true
}

// Export writes the transcript next to dir under the derived name and
// returns the full path.
func (r *Result) Export(dir string, result *transcribe.Result) (string, error) {
	path := filepath.Join(dir, ExportFileName(result.FileName))
	if err := exportText(path, result.Text); err != nil {
		return "", err
	}
	return path, nil
}

// ExportTimestamps writes the segment-timestamp rendering, when segments
// are present.
func (r *Result) ExportTimestamps(dir string, result *transcribe.Result) (string, error) {
	if len(result.Segments) == 0 {
		return "", fmt.Errorf("no segments to export")
	}
	path := filepath.Join(dir, TimestampedExportFileName(result.FileName))
	if err := exportText(path, FormatTimestamps(result.Segments)); err != nil {
		return "", err
	}
	return path, nil
}

func exportText(path, text string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	if err := WriteTranscript(file, text); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
