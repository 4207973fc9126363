package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCommandWithInputWritesStdin(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "stdin.txt")

	err := runCommandWithInput(context.Background(), []string{scriptPath, outputPath}, "mild eczema")
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "mild eczema", string(data))
}

func TestRunCommandWithInputRejectsEmptyArgv(t *testing.T) {
	err := runCommandWithInput(context.Background(), nil, "payload")
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")
}

func TestClipboardCopyWritesDiagnosis(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")

	argv := []string{scriptPath, clipboardPath}
	clipboard := NewClipboard(argv, nil)
	argv[1] = "/dev/null"

	require.NoError(t, clipboard.Copy(context.Background(), "Likely contact dermatitis."))

	data, err := os.ReadFile(clipboardPath)
	require.NoError(t, err)
	require.Equal(t, "Likely contact dermatitis.", string(data))
}

func TestClipboardCopySkipsBlankText(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")

	clipboard := NewClipboard([]string{scriptPath, clipboardPath}, nil)
	require.NoError(t, clipboard.Copy(context.Background(), "  \n"))

	_, err := os.Stat(clipboardPath)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestClipboardCopyReportsCommandFailure(t *testing.T) {
	failPath := writeFailScript(t, "clipboard unavailable")

	err := NewClipboard([]string{failPath}, nil).Copy(context.Background(), "diagnosis")
	require.Error(t, err)
	require.Contains(t, err.Error(), "set clipboard")
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture-stdin.sh")
	script := `#!/usr/bin/env bash
set -euo pipefail
cat > "$1"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho " + "\"" + message + "\"" + " >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}
