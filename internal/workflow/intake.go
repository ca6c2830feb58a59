package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fumisawa/koescribe/internal/transcribe"
)

// ErrNotAudio marks a candidate whose media type is not in the audio
// category. The previous selection, if any, is kept unchanged.
var ErrNotAudio = errors.New("selected file is not audio")

// ErrIntakeDisabled is returned while a submission is in flight.
var ErrIntakeDisabled = errors.New("file selection is disabled while a submission is in flight")

// Candidate is a file offered for selection, before validation. Both
// drag-and-drop and picker entry points funnel through the same struct.
type Candidate struct {
	Name      string
	SizeBytes int64
	MIMEType  string
	Path      string
}

// CandidateFromPath builds a candidate from a file on disk, guessing the
// media type from the extension.
func CandidateFromPath(path string) (Candidate, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("audio file not found: %w", err)
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	return Candidate{
		Name:      name,
		SizeBytes: info.Size(),
		MIMEType:  transcribe.MIMETypeForName(name),
		Path:      path,
	}, nil
}

// Intake validates and holds the current selection. Rejections are
// silent in the sense that they never clobber an existing selection.
type Intake struct {
	mu       sync.Mutex
	selected *transcribe.SelectedFile
	disabled bool
}

// Select accepts the candidate only if its media type is audio.
func (i *Intake) Select(c Candidate) (transcribe.SelectedFile, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.disabled {
		return transcribe.SelectedFile{}, ErrIntakeDisabled
	}
	if !transcribe.IsAudioMIME(c.MIMEType) {
		return transcribe.SelectedFile{}, ErrNotAudio
	}

	selected := transcribe.SelectedFile{
		Name:      c.Name,
		SizeBytes: c.SizeBytes,
		MIMEType:  c.MIMEType,
		Path:      c.Path,
	}
	i.selected = &selected
	return selected, nil
}

// Selected returns the current selection, if any.
func (i *Intake) Selected() (transcribe.SelectedFile, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.selected == nil {
		return transcribe.SelectedFile{}, false
	}
	return *i.selected, true
}

func (i *Intake) setDisabled(disabled bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.disabled = disabled
}
