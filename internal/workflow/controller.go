package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fumisawa/koescribe/internal/transcribe"
)

// State is the controller's lifecycle position. Exactly one is active.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateDone       State = "done"
	StateError      State = "error"
)

// ErrSubmissionInFlight is returned when submit is invoked while a
// submission is already outstanding; the call is otherwise a no-op.
var ErrSubmissionInFlight = errors.New("a submission is already in flight")

// ErrNoFileSelected is returned when submit is invoked without a selection.
var ErrNoFileSelected = errors.New("no audio file selected")

// Transition is delivered to listeners on every state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Listener observes controller transitions. Listeners are invoked outside
// the controller lock and must not assume ordering across goroutines
// beyond the transition sequence itself.
type Listener func(Transition)

// Controller orchestrates the transcription workflow: file intake,
// submission, in-flight tracking, and the final outcome. It serializes
// submissions so that at most one is outstanding at a time, and it is
// reentrant for the life of the session.
type Controller struct {
	transcriber transcribe.Transcriber
	guard       InterruptGuard
	logger      *zap.Logger
	now         func() time.Time

	mu        sync.Mutex
	intake    Intake
	state     State
	modelSize string
	language  string
	startedAt time.Time
	result    *transcribe.Result
	failure   *transcribe.Failure
	listeners []Listener
}

// Option configures optional controller collaborators.
type Option func(*Controller)

// WithGuard installs the interruption guard held while submitting.
func WithGuard(guard InterruptGuard) Option {
	return func(c *Controller) {
		if guard != nil {
			c.guard = guard
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces the time source; used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func NewController(transcriber transcribe.Transcriber, opts ...Option) *Controller {
	c := &Controller{
		transcriber: transcriber,
		guard:       nopGuard{},
		logger:      zap.NewNop(),
		now:         time.Now,
		state:       StateIdle,
		modelSize:   transcribe.DefaultModel,
		language:    transcribe.AutoLanguage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers a listener for all future transitions.
func (c *Controller) Subscribe(listener Listener) {
	if listener == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// SelectFile validates and stores a candidate. A successful selection
// clears any prior result or failure, so a stale transcript is never
// shown for a file other than the one that produced it.
func (c *Controller) SelectFile(candidate Candidate) (transcribe.SelectedFile, error) {
	selected, err := c.intake.Select(candidate)
	if err != nil {
		return transcribe.SelectedFile{}, err
	}

	c.mu.Lock()
	c.result = nil
	c.failure = nil
	from := c.state
	var notified *Transition
	if from == StateDone || from == StateError {
		c.state = StateIdle
		notified = &Transition{From: from, To: StateIdle, At: c.now()}
	}
	c.mu.Unlock()

	if notified != nil {
		c.notify(*notified)
	}
	return selected, nil
}

// SelectedFile returns the current selection, if any.
func (c *Controller) SelectedFile() (transcribe.SelectedFile, bool) {
	return c.intake.Selected()
}

func (c *Controller) SetModelSize(name string) error {
	if err := transcribe.ValidateModel(name); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modelSize = name
	return nil
}

func (c *Controller) SetLanguage(code string) error {
	normalized := transcribe.NormalizeLanguage(code)
	if err := transcribe.ValidateLanguage(normalized); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = normalized
	return nil
}

func (c *Controller) ModelSize() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modelSize
}

func (c *Controller) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartedAt reports when the outstanding submission began; ok is false
// unless the state is Submitting.
func (c *Controller) StartedAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSubmitting {
		return time.Time{}, false
	}
	return c.startedAt, true
}

func (c *Controller) Result() (*transcribe.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil, false
	}
	copied := *c.result
	return &copied, true
}

func (c *Controller) Failure() (*transcribe.Failure, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure == nil {
		return nil, false
	}
	copied := *c.failure
	return &copied, true
}

// Submit starts one submission for the current selection, snapshotting
// the model size and language at this moment rather than at selection
// time. The remote call runs on its own goroutine; listeners observe the
// completion transition.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}

	selected, ok := c.intake.Selected()
	if !ok {
		c.mu.Unlock()
		return ErrNoFileSelected
	}

	req := transcribe.Request{
		File:      selected,
		ModelSize: c.modelSize,
		Language:  c.language,
	}
	c.result = nil
	c.failure = nil
	from := c.state
	c.state = StateSubmitting
	c.startedAt = c.now()
	c.intake.setDisabled(true)
	c.guard.Acquire()
	at := c.startedAt
	c.mu.Unlock()

	c.logger.Info("submission started",
		zap.String("file", req.File.Name),
		zap.String("model", req.ModelSize),
		zap.String("language", req.Language),
	)
	c.notify(Transition{From: from, To: StateSubmitting, At: at})

	go c.run(ctx, req)
	return nil
}

func (c *Controller) run(ctx context.Context, req transcribe.Request) {
	result, err := c.transcriber.Transcribe(ctx, req)

	c.mu.Lock()
	var to State
	if err != nil {
		c.failure = asFailure(err)
		to = StateError
	} else {
		c.result = result
		to = StateDone
	}
	c.state = to
	c.startedAt = time.Time{}
	c.intake.setDisabled(false)
	c.guard.Release()
	at := c.now()
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("submission failed", zap.String("file", req.File.Name), zap.Error(err))
	} else {
		c.logger.Info("submission finished",
			zap.String("file", req.File.Name),
			zap.Float64("processing_seconds", result.ProcessingTimeSeconds),
		)
	}
	c.notify(Transition{From: StateSubmitting, To: to, At: at})
}

func (c *Controller) notify(t Transition) {
	c.mu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, listener := range listeners {
		listener(t)
	}
}

// asFailure maps any submission error onto the single user-visible
// failure, falling back to the generic message for unclassified errors.
func asFailure(err error) *transcribe.Failure {
	var failure *transcribe.Failure
	if errors.As(err, &failure) {
		return failure
	}
	return transcribe.NewFailure(transcribe.FailureTransport, "")
}
