//go:build !windows

package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const stubEngineScript = `#!/bin/sh
input="$1"
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--output_dir" ]; then out="$a"; fi
  prev="$a"
done
base=$(basename "$input")
stem="${base%.*}"
cat > "$out/$stem.json" <<'EOF'
{"text":" hello from stub ","segments":[{"start":0,"end":1.5,"text":"hello"}]}
EOF
`

func writeStubEngine(t *testing.T, script string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "whisper-stub")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestExecEngineParsesWhisperOutput(t *testing.T) {
	t.Parallel()

	audio := filepath.Join(t.TempDir(), "talk.wav")
	require.NoError(t, os.WriteFile(audio, []byte("pcm"), 0o644))

	engine := &ExecEngine{Executable: writeStubEngine(t, stubEngineScript)}
	result, err := engine.Transcribe(context.Background(), Request{
		File:      SelectedFile{Name: "talk.wav", Path: audio},
		ModelSize: "base",
		Language:  "auto",
	})
	require.NoError(t, err)

	require.Equal(t, "hello from stub", result.Text)
	require.Equal(t, "talk.wav", result.FileName)
	require.GreaterOrEqual(t, result.ProcessingTimeSeconds, float64(0))
	require.Len(t, result.Segments, 1)
	require.Equal(t, 1.5, result.Segments[0].End)
}

func TestExecEngineReportsStderrOnFailure(t *testing.T) {
	t.Parallel()

	engine := &ExecEngine{Executable: writeStubEngine(t, "#!/bin/sh\necho 'CUDA out of memory' >&2\nexit 1\n")}
	_, err := engine.Transcribe(context.Background(), Request{
		File:      SelectedFile{Name: "talk.wav", Path: "/tmp/talk.wav"},
		ModelSize: "base",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "CUDA out of memory")
}

func TestExecEngineValidatesInput(t *testing.T) {
	t.Parallel()

	engine := &ExecEngine{Executable: "/bin/true"}

	_, err := engine.Transcribe(context.Background(), Request{ModelSize: "base"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "audio path is required")

	_, err = engine.Transcribe(context.Background(), Request{
		File:      SelectedFile{Path: "/tmp/talk.wav"},
		ModelSize: "huge",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown model")
}
