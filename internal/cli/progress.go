package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/fumisawa/koescribe/internal/presenter"
	"github.com/fumisawa/koescribe/internal/workflow"
)

type stopFunc func()

// startStatusDisplay shows a spinner whose description carries the
// elapsed submission time, fed by the status presenter.
func (a *appState) startStatusDisplay(controller *workflow.Controller) stopFunc {
	if !a.progressEnabled() {
		return func() {}
	}

	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription(fmt.Sprintf("Transcribing (%s)", presenter.FormatElapsed(0))),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	status := presenter.NewStatus(controller, func(elapsed string) {
		bar.Describe(fmt.Sprintf("Transcribing (%s)", elapsed))
	})
	status.Attach()

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
		})
	}
}
