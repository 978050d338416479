package cli

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runResult struct {
	code   int
	err    error
	stdout string
	stderr string
}

// run runs the CLI with a fresh HOME and no RANGEDIFF_* overrides.
func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{"RANGEDIFF_TOO_LONG", "RANGEDIFF_CONTEXT_LINES", "RANGEDIFF_JOBS", "RANGEDIFF_IGNORE_WHITESPACE", "RANGEDIFF_ENCODING",
		"RANGEDIFF_OUTPUT_ENCODING", "RANGEDIFF_COLOR", "RANGEDIFF_LOG_FILE"} {
		t.Setenv(name, "")
	}

	var out, errOut bytes.Buffer
	code, err := Run(append([]string{"rangediff"}, args...), &RunOptions{In: strings.NewReader(stdin), Out: &out, Err: &errOut})
	return runResult{code: code, err: err, stdout: out.String(), stderr: errOut.String()}
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRun_Help(t *testing.T) {
	r := run(t, "", "-h")
	require.NoError(t, r.err)
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "diff3")
	assert.Contains(t, r.stdout, "merge-tree")
	assert.Empty(t, r.stderr)
}

func TestRun_Version(t *testing.T) {
	r := run(t, "", "--version")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, Version)
}

func TestRun_UsageErrors(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a"), "a\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"bogus"}, "unknown command"},
		{"missing argument", []string{"diff", a}, "expected 2 argument(s), got 1"},
		{"unknown flag", []string{"diff", "--bogus", a, a}, "unknown flag"},
		{"bad color", []string{"diff", "--color", "purple", a, a}, "invalid --color"},
		{"negative context", []string{"diff", "-U", "-1", a, a}, "--context must be >= 0"},
		{"exclusive diff3 modes", []string{"diff3", "--markers", "--side-by-side", "5", a, a, a}, "mutually exclusive"},
		{"merge without output", []string{"merge", a, a, a}, "-o/--output is required"},
		{"merge-tree without target", []string{"merge-tree", "--ancestor", dir, "--other", dir, "--out", dir}, "--target is required"},
		{"merge-tree zero jobs", []string{"merge-tree", "--ancestor", dir, "--target", dir, "--other", dir, "--out", dir, "-j", "0"}, "--jobs must be >= 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := run(t, "", tc.args...)
			require.Error(t, r.err)
			assert.Equal(t, 2, r.code, "err=%v", r.err)
			assert.Contains(t, r.stderr, tc.want)
		})
	}
}

func TestRun_Diff(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFile(t, filepath.Join(dir, "old.txt"), "a\nb\nc\n")
	newPath := writeFile(t, filepath.Join(dir, "new.txt"), "a\nX\nc\n")

	r := run(t, "", "diff", "--context", "1", oldPath, newPath)
	require.Error(t, r.err)
	assert.Equal(t, 1, r.code)
	assert.Empty(t, r.stderr)

	exp := strings.Join([]string{
		"--- " + oldPath,
		"+++ " + newPath,
		"@@ -1,3 +1,3 @@",
		" a",
		"-b",
		"+X",
		" c",
		"",
	}, "\n")
	assert.Equal(t, exp, r.stdout)
}

func TestRun_Diff_Equal(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.txt"), "same\n")
	b := writeFile(t, filepath.Join(dir, "b.txt"), "same\n")

	r := run(t, "", "diff", a, b)
	require.NoError(t, r.err)
	assert.Equal(t, 0, r.code)
	assert.Empty(t, r.stdout)
}

func TestRun_Diff_Stdin(t *testing.T) {
	dir := t.TempDir()
	newPath := writeFile(t, filepath.Join(dir, "new.txt"), "a\n")

	r := run(t, "x\n", "diff", "-", newPath)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "-x\n+a\n")
}

func TestRun_Diff_IgnoreWhitespace(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.txt"), "x := 1\n")
	b := writeFile(t, filepath.Join(dir, "b.txt"), "x:=1\n")

	assert.Equal(t, 1, run(t, "", "diff", a, b).code)
	assert.Equal(t, 0, run(t, "", "diff", "-w", a, b).code)
}

func TestRun_Diff_ColorAlways(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.txt"), "x\n")
	b := writeFile(t, filepath.Join(dir, "b.txt"), "y\n")

	r := run(t, "", "diff", "--color", "always", a, b)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "\x1b[")
}

func TestRun_Diff_MissingFile(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.txt"), "x\n")

	r := run(t, "", "diff", a, filepath.Join(dir, "nope.txt"))
	require.Error(t, r.err)
	assert.Equal(t, 1, r.code)
	assert.ErrorIs(t, r.err, fs.ErrNotExist)
	assert.Contains(t, r.stderr, "error: ")
}

func TestRun_Diff3_Regions(t *testing.T) {
	dir := t.TempDir()
	anc := writeFile(t, filepath.Join(dir, "anc"), "a\nb\nc\n")
	left := writeFile(t, filepath.Join(dir, "left"), "a\nB\nc\n")
	right := writeFile(t, filepath.Join(dir, "right"), "a\nb\nc\nd\n")

	r := run(t, "", "diff3", anc, left, right)
	require.NoError(t, r.err)

	exp := strings.Join([]string{
		"NoChange     ancestor=1,1 left=1,1 right=1,1",
		"LeftOnly     ancestor=2,1 left=2,1 right=2,1",
		"NoChange     ancestor=3,1 left=3,1 right=3,1",
		"RightOnly    ancestor=3,0 left=3,0 right=4,1",
		"",
	}, "\n")
	assert.Equal(t, exp, r.stdout)
}

func TestRun_Diff3_Markers(t *testing.T) {
	dir := t.TempDir()
	anc := writeFile(t, filepath.Join(dir, "anc"), "a\n")
	left := writeFile(t, filepath.Join(dir, "left"), "b\n")
	right := writeFile(t, filepath.Join(dir, "right"), "c\n")

	r := run(t, "", "diff3", "--markers", anc, left, right)
	assert.Equal(t, 1, r.code)
	exp := strings.Join([]string{
		"<<<<<<< " + left,
		"b",
		"||||||| " + anc,
		"a",
		"=======",
		"c",
		">>>>>>> " + right,
		"",
	}, "\n")
	assert.Equal(t, exp, r.stdout)
	assert.Equal(t, "1 conflict(s)\n", r.stderr)
}

func TestRun_Diff3_SideBySide(t *testing.T) {
	dir := t.TempDir()
	anc := writeFile(t, filepath.Join(dir, "anc"), "a\nb\n")
	left := writeFile(t, filepath.Join(dir, "left"), "a\nb\n")
	right := writeFile(t, filepath.Join(dir, "right"), "a\nbee\n")

	r := run(t, "", "diff3", "--side-by-side", "3", anc, left, right)
	require.NoError(t, r.err)
	assert.Equal(t, "  a   | a   | a\n> b   | b   | bee\n", r.stdout)
}

func TestRun_Merge(t *testing.T) {
	dir := t.TempDir()
	anc := writeFile(t, filepath.Join(dir, "anc"), "a\nb\nc\nd\n")
	tgt := writeFile(t, filepath.Join(dir, "tgt"), "a\nB\nc\nd\n")
	oth := writeFile(t, filepath.Join(dir, "oth"), "a\nb\nc\nD\n")
	out := filepath.Join(dir, "out")

	r := run(t, "", "merge", anc, tgt, oth, "-o", out)
	require.NoError(t, r.err)
	assert.Equal(t, 0, r.code)
	assert.Equal(t, "a\nB\nc\nD\n", readFile(t, out))

	r = run(t, "", "merge", "-o", "-", anc, tgt, oth)
	require.NoError(t, r.err)
	assert.Equal(t, "a\nB\nc\nD\n", r.stdout)
}

func TestRun_Merge_Conflict(t *testing.T) {
	dir := t.TempDir()
	anc := writeFile(t, filepath.Join(dir, "anc"), "a\nb\n")
	tgt := writeFile(t, filepath.Join(dir, "tgt"), "a\nB\n")
	oth := writeFile(t, filepath.Join(dir, "oth"), "a\nC\n")
	out := filepath.Join(dir, "out")

	r := run(t, "", "merge", anc, tgt, oth, "-o", out)
	require.Error(t, r.err)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "merge conflict")
	assert.Equal(t, "a\n", readFile(t, out))
}

func TestRun_Merge_BadEncoding(t *testing.T) {
	dir := t.TempDir()
	anc := writeFile(t, filepath.Join(dir, "anc"), "a\n")

	r := run(t, "", "merge", "--encoding", "klingon", anc, anc, anc, "-o", filepath.Join(dir, "out"))
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "unsupported encoding")
}

func TestRun_MergeTree(t *testing.T) {
	root := t.TempDir()
	anc := filepath.Join(root, "anc")
	tgt := filepath.Join(root, "tgt")
	oth := filepath.Join(root, "oth")
	out := filepath.Join(root, "out")

	writeFile(t, filepath.Join(anc, "a.txt"), "1\n2\n3\n4\n")
	writeFile(t, filepath.Join(tgt, "a.txt"), "1\nTWO\n3\n4\n")
	writeFile(t, filepath.Join(oth, "a.txt"), "1\n2\n3\nFOUR\n")

	writeFile(t, filepath.Join(anc, "sub", "b.txt"), "x\n")
	writeFile(t, filepath.Join(tgt, "sub", "b.txt"), "x\n")
	writeFile(t, filepath.Join(oth, "sub", "b.txt"), "x\ny\n")

	writeFile(t, filepath.Join(anc, "c.txt"), "c\n")
	writeFile(t, filepath.Join(tgt, "c.txt"), "c\n")

	writeFile(t, filepath.Join(anc, "d.txt"), "a\nb\n")
	writeFile(t, filepath.Join(tgt, "d.txt"), "a\nB\n")
	writeFile(t, filepath.Join(oth, "d.txt"), "a\nC\n")

	r := run(t, "", "merge-tree", "--ancestor", anc, "--target", tgt, "--other", oth, "--out", out, "-j", "2")
	require.Error(t, r.err)
	assert.Equal(t, 1, r.code)
	assert.Equal(t, "skipped c.txt: missing from other\nmerged 2, failed 1, skipped 1\n", r.stdout)
	assert.Contains(t, r.stderr, "d.txt: merge conflict")

	assert.Equal(t, "1\nTWO\n3\nFOUR\n", readFile(t, filepath.Join(out, "a.txt")))
	assert.Equal(t, "x\ny\n", readFile(t, filepath.Join(out, "sub", "b.txt")))
	assert.NoFileExists(t, filepath.Join(out, "c.txt"))
}

func TestRun_Tokens(t *testing.T) {
	r := run(t, "", "tokens", "x := 1")
	require.NoError(t, r.err)
	exp := strings.Join([]string{
		"0\tletter\t\"x\"",
		"1\twhitespace\t\" \"",
		"2\tother\t\":=\"",
		"4\twhitespace\t\" \"",
		"5\tdigit\t\"1\"",
		"",
	}, "\n")
	assert.Equal(t, exp, r.stdout)
}

func TestRun_Config(t *testing.T) {
	r := run(t, "", "config")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "[diff]")
	assert.Contains(t, r.stdout, "context_lines = 3")

	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "config.toml"), "[diff]\ncontext_lines = 7\n")
	r = run(t, "", "--config", path, "config")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "context_lines = 7")

	r = run(t, "", "--config", filepath.Join(dir, "missing.toml"), "config")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "error: ")
}

func TestRun_ConfigContextLines(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFile(t, filepath.Join(dir, "old"), "1\n2\n3\n4\n5\n")
	newPath := writeFile(t, filepath.Join(dir, "new"), "1\n2\nX\n4\n5\n")
	cfg := writeFile(t, filepath.Join(dir, "config.toml"), "[diff]\ncontext_lines = 0\n")

	r := run(t, "", "--config", cfg, "diff", oldPath, newPath)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "@@ -3 +3 @@\n-3\n+X\n")
}

func TestRun_TracesArgsToLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rangediff.log")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RANGEDIFF_LOG_FILE", logPath)

	var out, errOut bytes.Buffer
	code, err := Run([]string{"rangediff", "tokens", "x y"}, &RunOptions{Out: &out, Err: &errOut})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	logged := readFile(t, logPath)
	assert.Contains(t, logged, `rangediff ["tokens" "x y"]`+"\n")
	assert.Contains(t, logged, "msg=run")
}
