package printing

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRenderer is a shell script standing in for wkhtmltopdf. It appends
// one line per argument to argsFile and one line per run to callsFile.
type fakeRenderer struct {
	path      string
	argsFile  string
	callsFile string
}

const (
	writesPDF    = `eval out=\${$#}; printf '%%PDF-1.4 fake' > "$out"`
	failsLoudly  = `echo "Error: Failed loading page" >&2; echo "partial" ; exit 3`
	exitsSilent  = `exit 0`
	hangsForever = `exec sleep 10`
)

func newFakeRenderer(t *testing.T, behaviour string) *fakeRenderer {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake renderer needs a POSIX shell")
	}

	dir := t.TempDir()
	f := &fakeRenderer{
		path:      filepath.Join(dir, "wkhtmltopdf"),
		argsFile:  filepath.Join(dir, "args.log"),
		callsFile: filepath.Join(dir, "calls.log"),
	}
	script := fmt.Sprintf(`#!/bin/sh
echo run >> '%s'
for a in "$@"; do printf '%%s\n' "$a" >> '%s'; done
%s
`, f.callsFile, f.argsFile, behaviour)

	require.NoError(t, os.WriteFile(f.path, []byte(script), 0o755))
	return f
}

func (f *fakeRenderer) Args(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.argsFile)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func (f *fakeRenderer) Calls(t *testing.T) int {
	t.Helper()
	data, err := os.ReadFile(f.callsFile)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "run\n")
}
