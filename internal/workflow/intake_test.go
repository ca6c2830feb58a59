package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectRejectsNonAudioKeepingPreviousSelection(t *testing.T) {
	t.Parallel()

	intake := &Intake{}

	selected, err := intake.Select(Candidate{Name: "lecture.wav", MIMEType: "audio/wav", SizeBytes: 42})
	require.NoError(t, err)
	require.Equal(t, "lecture.wav", selected.Name)

	tests := []struct {
		name      string
		candidate Candidate
	}{
		{name: "pdf", candidate: Candidate{Name: "notes.pdf", MIMEType: "application/pdf"}},
		{name: "video", candidate: Candidate{Name: "clip.mp4", MIMEType: "video/mp4"}},
		{name: "empty mime", candidate: Candidate{Name: "mystery"}},
		{name: "text", candidate: Candidate{Name: "readme.txt", MIMEType: "text/plain"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := intake.Select(tt.candidate)
			require.ErrorIs(t, err, ErrNotAudio)

			current, ok := intake.Selected()
			require.True(t, ok)
			require.Equal(t, "lecture.wav", current.Name)
		})
	}
}

func TestSelectReplacesSelectionForAudioCandidates(t *testing.T) {
	t.Parallel()

	intake := &Intake{}

	_, err := intake.Select(Candidate{Name: "first.mp3", MIMEType: "audio/mpeg"})
	require.NoError(t, err)

	replaced, err := intake.Select(Candidate{Name: "second.flac", MIMEType: "audio/flac", SizeBytes: 7})
	require.NoError(t, err)
	require.Equal(t, "second.flac", replaced.Name)
	require.Equal(t, int64(7), replaced.SizeBytes)

	current, ok := intake.Selected()
	require.True(t, ok)
	require.Equal(t, "second.flac", current.Name)
}

func TestSelectRejectedWhileDisabled(t *testing.T) {
	t.Parallel()

	intake := &Intake{}
	_, err := intake.Select(Candidate{Name: "keep.wav", MIMEType: "audio/wav"})
	require.NoError(t, err)

	intake.setDisabled(true)
	_, err = intake.Select(Candidate{Name: "other.wav", MIMEType: "audio/wav"})
	require.ErrorIs(t, err, ErrIntakeDisabled)

	current, ok := intake.Selected()
	require.True(t, ok)
	require.Equal(t, "keep.wav", current.Name)
}

func TestCandidateFromPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "talk.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o644))

	candidate, err := CandidateFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "talk.mp3", candidate.Name)
	require.Equal(t, "audio/mpeg", candidate.MIMEType)
	require.Equal(t, int64(16), candidate.SizeBytes)
	require.Equal(t, path, candidate.Path)
}

func TestCandidateFromPathMissingFile(t *testing.T) {
	t.Parallel()

	_, err := CandidateFromPath("/no/such/file.wav")
	require.Error(t, err)
	require.Contains(t, err.Error(), "audio file not found")
}
