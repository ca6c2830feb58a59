package presenter

import (
	"fmt"
	"sync"
	"time"

	"github.com/fumisawa/koescribe/internal/workflow"
)

// FormatElapsed renders a duration as minutes:seconds with zero-padded
// seconds, at second granularity.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Elapsed is the time spent since the submission started.
func Elapsed(startedAt, now time.Time) time.Duration {
	return now.Sub(startedAt)
}

// FormatCompletionEstimate renders an estimated completion moment as a
// local time string. A zero time means no estimate is known and yields
// an empty string rather than an error.
func FormatCompletionEstimate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("15:04:05")
}

// Status derives a live elapsed-time view from the controller while a
// submission is outstanding. It emits an update every interval, and a
// zero reset the instant the state leaves Submitting.
type Status struct {
	controller *workflow.Controller
	interval   time.Duration
	now        func() time.Time
	emit       func(string)

	mu   sync.Mutex
	stop chan struct{}
}

func NewStatus(controller *workflow.Controller, emit func(string)) *Status {
	return &Status{
		controller: controller,
		interval:   time.Second,
		now:        time.Now,
		emit:       emit,
	}
}

// Attach subscribes the presenter to controller transitions.
func (s *Status) Attach() {
	s.controller.Subscribe(s.onTransition)
}

func (s *Status) onTransition(t workflow.Transition) {
	switch {
	case t.To == workflow.StateSubmitting:
		s.startTicking()
	case t.From == workflow.StateSubmitting:
		s.stopTicking()
	}
}

func (s *Status) startTicking() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	s.emit(FormatElapsed(0))

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				startedAt, ok := s.controller.StartedAt()
				if !ok {
					return
				}
				s.emit(FormatElapsed(Elapsed(startedAt, s.now())))
			}
		}
	}()
}

func (s *Status) stopTicking() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()

	s.emit(FormatElapsed(0))
}
