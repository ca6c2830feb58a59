package presenter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fumisawa/koescribe/internal/transcribe"
	"github.com/fumisawa/koescribe/internal/workflow"
)

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{name: "zero", in: 0, want: "0:00"},
		{name: "sixty five seconds", in: 65 * time.Second, want: "1:05"},
		{name: "just under ten minutes", in: 599 * time.Second, want: "9:59"},
		{name: "sub second truncates", in: 900 * time.Millisecond, want: "0:00"},
		{name: "negative clamps", in: -3 * time.Second, want: "0:00"},
		{name: "over an hour keeps counting minutes", in: 61*time.Minute + 7*time.Second, want: "61:07"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, FormatElapsed(tt.in))
		})
	}
}

func TestFormatCompletionEstimate(t *testing.T) {
	t.Parallel()

	require.Empty(t, FormatCompletionEstimate(time.Time{}), "missing estimate is not an error")
	require.NotEmpty(t, FormatCompletionEstimate(time.Now()))
}

type blockingTranscriber struct {
	block  chan struct{}
	result *transcribe.Result
}

func (b *blockingTranscriber) Transcribe(_ context.Context, _ transcribe.Request) (*transcribe.Result, error) {
	<-b.block
	return b.result, nil
}

func TestStatusEmitsWhileSubmittingAndResetsOnExit(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	controller := workflow.NewController(&blockingTranscriber{
		block:  block,
		result: &transcribe.Result{Text: "done", FileName: "a.wav"},
	})

	var (
		mu      sync.Mutex
		emitted []string
	)
	status := NewStatus(controller, func(s string) {
		mu.Lock()
		defer mu.Unlock()
		emitted = append(emitted, s)
	})
	status.interval = 5 * time.Millisecond
	status.Attach()

	_, err := controller.SelectFile(workflow.Candidate{Name: "a.wav", MIMEType: "audio/wav"})
	require.NoError(t, err)
	require.NoError(t, controller.Submit(context.Background()))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(emitted) >= 2
	}, time.Second, time.Millisecond, "expected elapsed updates while submitting")

	close(block)
	require.Eventually(t, func() bool {
		return controller.State() == workflow.StateDone
	}, time.Second, time.Millisecond)

	// The final emission is the zero reset issued when Submitting exits.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return emitted[len(emitted)-1] == "0:00"
	}, time.Second, time.Millisecond)
}
