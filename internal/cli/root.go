package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/fumisawa/koescribe/internal/clipboard"
	"github.com/fumisawa/koescribe/internal/config"
	"github.com/fumisawa/koescribe/internal/logging"
	"github.com/fumisawa/koescribe/internal/presenter"
	"github.com/fumisawa/koescribe/internal/transcribe"
	"github.com/fumisawa/koescribe/internal/version"
	"github.com/fumisawa/koescribe/internal/workflow"
)

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool
	file       string
	model      string
	language   string
	output     string
	serverURL  string
	local      bool
	copyText   bool
	timestamps bool

	logger *zap.Logger
	now    func() time.Time
	out    io.Writer

	transcriberFn func() (transcribe.Transcriber, error)
	copyFn        func(ctx context.Context, value string) error
}

func NewRootCmd() *cobra.Command {
	app := &appState{
		model:     transcribe.DefaultModel,
		language:  transcribe.AutoLanguage,
		serverURL: config.DefaultServerURL,
		now:       time.Now,
		out:       os.Stdout,
	}

	cmd := &cobra.Command{
		Use:           "koescribe",
		Short:         "Transcribe audio files through a whisper backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.language = transcribe.NormalizeLanguage(app.language)
			app.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.out = cmd.OutOrStdout()
			return app.runTranscribe(cmd.Context())
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	cmd.Flags().StringVar(&app.file, "file", "", "Path of the audio file to transcribe")
	cmd.Flags().StringVar(&app.model, "model", app.model, "Model size: tiny|base|small|medium|large")
	cmd.Flags().StringVar(&app.language, "language", app.language, "Language code (auto|ja|en|...)")
	cmd.Flags().StringVar(&app.output, "output", "", "Write the transcript to this path instead of stdout")
	cmd.Flags().StringVar(&app.serverURL, "server", app.serverURL, "Base URL of the koescribe API server")
	cmd.Flags().BoolVar(&app.local, "local", false, "Run the whisper executable directly instead of calling the server")
	cmd.Flags().BoolVar(&app.copyText, "copy", false, "Copy the transcript to the clipboard")
	cmd.Flags().BoolVar(&app.timestamps, "timestamps", false, "Also write a timestamped transcript next to --output")
	_ = cmd.MarkFlagRequired("file")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.Flags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
}

func bindProgressFlag(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func (a *appState) runTranscribe(ctx context.Context) error {
	transcriberFn := a.transcriberFn
	if transcriberFn == nil {
		transcriberFn = a.buildTranscriber
	}
	copyFn := a.copyFn
	if copyFn == nil {
		copyFn = clipboard.CopyText
	}

	candidate, err := workflow.CandidateFromPath(a.file)
	if err != nil {
		return err
	}

	transcriber, err := transcriberFn()
	if err != nil {
		return err
	}

	controller := workflow.NewController(transcriber, workflow.WithLogger(a.log()), workflow.WithClock(a.clock()))
	if _, err := controller.SelectFile(candidate); err != nil {
		if errors.Is(err, workflow.ErrNotAudio) {
			return fmt.Errorf("%s: %w", a.file, err)
		}
		return err
	}
	if err := controller.SetModelSize(a.model); err != nil {
		return err
	}
	if err := controller.SetLanguage(a.language); err != nil {
		return err
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

	stopStatus := a.startStatusDisplay(controller)
	if err := controller.Submit(ctx); err != nil {
		stopStatus()
		return err
	}
	<-done
	stopStatus()

	if failure, ok := controller.Failure(); ok {
		return failure
	}
	result, ok := controller.Result()
	if !ok {
		return errors.New(transcribe.GenericFailureMessage)
	}

	a.log().Info("transcription finished",
		zap.String("file", result.FileName),
		zap.String("processing_time", presenter.FormatProcessingTime(result.ProcessingTimeSeconds)),
	)

	if a.output != "" {
		if err := a.writeOutputs(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(a.outWriter(), result.Text)
	}

	if a.copyText {
		results := presenter.NewResult(a.log())
		results.CopyFn = copyFn
		if results.Copy(ctx, result) {
			a.log().Info("transcript copied to clipboard")
		}
	}
	return nil
}

func (a *appState) writeOutputs(result *transcribe.Result) error {
	out, err := os.Create(a.output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := presenter.WriteTranscript(out, result.Text); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	a.log().Info("transcript saved", zap.String("path", a.output))

	if !a.timestamps {
		return nil
	}
	if len(result.Segments) == 0 {
		a.log().Warn("no segments available; skipping timestamped output")
		return nil
	}

	tsPath := strings.TrimSuffix(a.output, filepath.Ext(a.output)) + "_timestamps.txt"
	tsOut, err := os.Create(tsPath)
	if err != nil {
		return fmt.Errorf("create timestamped output file: %w", err)
	}
	if err := presenter.WriteTranscript(tsOut, presenter.FormatTimestamps(result.Segments)); err != nil {
		_ = tsOut.Close()
		return err
	}
	if err := tsOut.Close(); err != nil {
		return fmt.Errorf("close timestamped output file: %w", err)
	}
	a.log().Info("timestamped transcript saved", zap.String("path", tsPath))
	return nil
}

// buildTranscriber picks the remote client unless --local asks for the
// whisper executable directly.
func (a *appState) buildTranscriber() (transcribe.Transcriber, error) {
	if a.local {
		return transcribe.NewExecEngine(a.log())
	}
	return transcribe.NewClient(a.serverURL, a.log()), nil
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) clock() func() time.Time {
	if a.now == nil {
		return time.Now
	}
	return a.now
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
