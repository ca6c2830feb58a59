package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// EnvWhisperPath overrides where the whisper executable is looked up.
const EnvWhisperPath = "KOESCRIBE_WHISPER_PATH"

// ExecEngine runs a local whisper executable. The model itself stays an
// opaque black box: one invocation in, one JSON transcript out.
type ExecEngine struct {
	Executable string
	Logger     *zap.Logger
}

func NewExecEngine(logger *zap.Logger) (*ExecEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if override := strings.TrimSpace(os.Getenv(EnvWhisperPath)); override != "" {
		if err := ensureExecutable(override); err != nil {
			return nil, fmt.Errorf("%s is not executable: %w", EnvWhisperPath, err)
		}
		return &ExecEngine{Executable: override, Logger: logger}, nil
	}

	path, err := exec.LookPath("whisper")
	if err != nil {
		return nil, fmt.Errorf("whisper executable not found in PATH; install openai-whisper or set %s: %w", EnvWhisperPath, err)
	}
	return &ExecEngine{Executable: path, Logger: logger}, nil
}

// whisperOutput matches the JSON the whisper CLI writes next to the audio.
type whisperOutput struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

func (e *ExecEngine) Transcribe(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.File.Path) == "" {
		return nil, errors.New("audio path is required")
	}
	if err := ValidateModel(req.ModelSize); err != nil {
		return nil, err
	}

	outDir, err := os.MkdirTemp("", "koescribe-*")
	if err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{
		req.File.Path,
		"--model", req.ModelSize,
		"--output_format", "json",
		"--output_dir", outDir,
	}
	lang := NormalizeLanguage(req.Language)
	if lang != AutoLanguage {
		args = append(args, "--language", lang)
	}

	cmd := exec.CommandContext(ctx, e.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = &bytes.Buffer{}
	cmd.Stderr = &stderr

	e.log().Debug("running whisper", zap.String("executable", e.Executable), zap.Strings("args", args))
	started := time.Now()
	if err := cmd.Run(); err != nil {
		errText := strings.TrimSpace(stderr.String())
		if errText != "" {
			return nil, fmt.Errorf("whisper failed: %w (%s)", err, errText)
		}
		return nil, fmt.Errorf("whisper failed: %w", err)
	}
	elapsed := time.Since(started)

	stem := strings.TrimSuffix(filepath.Base(req.File.Path), filepath.Ext(req.File.Path))
	content, err := os.ReadFile(filepath.Join(outDir, stem+".json"))
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(content, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	name := req.File.Name
	if name == "" {
		name = filepath.Base(req.File.Path)
	}

	e.log().Info("transcription finished", zap.Duration("elapsed", elapsed), zap.String("file", name))
	return &Result{
		Text:                  strings.TrimSpace(out.Text),
		FileName:              name,
		ProcessingTimeSeconds: elapsed.Seconds(),
		Segments:              out.Segments,
	}, nil
}

func (e *ExecEngine) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}
