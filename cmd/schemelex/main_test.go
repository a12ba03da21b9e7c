package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemelex/internal/diagfmt"
)

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// emptyConfig keeps tests independent of any schemelex.toml above the working directory.
func emptyConfig(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), configFileName, "")
}

func decodeTokens(t *testing.T, s string) []diagfmt.TokensOutput {
	t.Helper()
	var out []diagfmt.TokensOutput
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	return out
}

func TestTokenize_FilePretty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "square.scm", "(define x 42 )\n")
	res := runCLI(t, "--config", emptyConfig(t), "tokenize", path)

	require.Equal(t, 0, res.code, res.stderr)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "LParen")
	assert.Contains(t, lines[1], `Ident`)
	assert.Contains(t, lines[1], `"define"`)
	assert.Contains(t, lines[2], `"x"`)
	assert.Contains(t, lines[3], `IntLit`)
	assert.Contains(t, lines[3], `"42"`)
	assert.Contains(t, lines[4], "RParen")
}

func TestTokenize_FileJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ok.scm", "( foo \"bar\" 1.5 )\n")
	res := runCLI(t, "--config", emptyConfig(t), "tokenize", "--format", "json", path)

	require.Equal(t, 0, res.code, res.stderr)
	out := decodeTokens(t, res.stdout)
	require.Len(t, out, 1)
	assert.Equal(t, path, out[0].File)
	assert.Empty(t, out[0].Error)

	kinds := make([]string, 0, len(out[0].Tokens))
	for _, tok := range out[0].Tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []string{"LParen", "Ident", "StringLit", "FloatLit", "RParen"}, kinds)
	assert.Equal(t, "bar", out[0].Tokens[2].Text)
	assert.Equal(t, uint32(1), out[0].Tokens[1].Line)
	assert.Equal(t, uint32(3), out[0].Tokens[1].Col)
}

func TestTokenize_LexErrorExitsNonZero(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.scm", "( 12x )\n")
	res := runCLI(t, "--config", emptyConfig(t), "--color", "off", "tokenize", path)

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "LEX1004")
	assert.Contains(t, res.stderr, "bad.scm:1:3")
	assert.NotContains(t, res.stderr, "error: ")
	assert.Contains(t, res.stdout, "LParen")
}

func TestTokenize_KeepGoing(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.scm", "( 12x @ y )\n")
	res := runCLI(t, "--config", emptyConfig(t), "tokenize", "--keep-going", "--format", "json", "--diag-format", "json", path)

	assert.Equal(t, 1, res.code)
	out := decodeTokens(t, res.stdout)
	require.Len(t, out, 1)
	kinds := make([]string, 0, len(out[0].Tokens))
	for _, tok := range out[0].Tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []string{"LParen", "Ident", "RParen"}, kinds)
	assert.NotEmpty(t, out[0].Error)

	var diags diagfmt.DiagnosticsOutput
	require.NoError(t, json.Unmarshal([]byte(res.stderr), &diags))
	assert.Equal(t, 2, diags.Count)
}

func TestTokenize_Stdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	a := &app{}
	cmd := newRootCmd(a)
	cmd.SetArgs([]string{"--config", emptyConfig(t), "tokenize", "--format", "json", "-"})
	cmd.SetIn(strings.NewReader("; hi\n(a )"))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	require.NoError(t, cmd.Execute())
	out := decodeTokens(t, stdout.String())
	require.Len(t, out, 1)
	assert.Equal(t, stdinName, out[0].File)
	require.Len(t, out[0].Tokens, 4)
	assert.Equal(t, "Comment", out[0].Tokens[0].Kind)
	assert.Equal(t, "; hi", out[0].Tokens[0].Text)
	assert.Equal(t, uint32(2), out[0].Tokens[1].Line)
}

func TestTokenize_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.scm", "(a )")
	writeFile(t, dir, "sub/b.lisp", "\"unterminated")
	writeFile(t, dir, "notes.txt", "ignored")

	res := runCLI(t, "--config", emptyConfig(t), "--color", "off", "tokenize", "--ui", "off", "--jobs", "2", "--format", "json", dir)

	assert.Equal(t, 1, res.code)
	out := decodeTokens(t, res.stdout)
	require.Len(t, out, 2)
	assert.Equal(t, filepath.Join(dir, "a.scm"), out[0].File)
	assert.Empty(t, out[0].Error)
	assert.Equal(t, filepath.Join(dir, "sub", "b.lisp"), out[1].File)
	assert.NotEmpty(t, out[1].Error)
	assert.Contains(t, res.stderr, "LEX1002")
	assert.Contains(t, res.stderr, "2 files, 1 with errors")
}

func TestTokenize_StreamMode(t *testing.T) {
	path := writeFile(t, t.TempDir(), "s.scm", "(x 1 2.0 )")
	buffered := runCLI(t, "--config", emptyConfig(t), "tokenize", "--format", "json", path)
	streamed := runCLI(t, "--config", emptyConfig(t), "tokenize", "--format", "json", "--mode", "stream", path)

	require.Equal(t, 0, buffered.code, buffered.stderr)
	require.Equal(t, 0, streamed.code, streamed.stderr)
	assert.Equal(t, buffered.stdout, streamed.stdout)
}

func TestTokenize_CacheRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	path := writeFile(t, t.TempDir(), "c.scm", "(f 1 )\n( 2x )")

	first := runCLI(t, "--config", emptyConfig(t), "--color", "off", "tokenize", "--cache", "--format", "json", path)
	second := runCLI(t, "--config", emptyConfig(t), "--color", "off", "tokenize", "--cache", "--format", "json", path)

	assert.Equal(t, 1, first.code)
	assert.Equal(t, first.code, second.code)
	assert.Equal(t, first.stdout, second.stdout)
	assert.Equal(t, first.stderr, second.stderr)

	entries, err := os.ReadDir(filepath.Join(os.Getenv("XDG_CACHE_HOME"), cacheApp, "tokens"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTokenize_Timings(t *testing.T) {
	path := writeFile(t, t.TempDir(), "t.scm", "(a )")

	res := runCLI(t, "--config", emptyConfig(t), "--color", "off", "--timings", "tokenize", path)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "OBS6001")

	quiet := runCLI(t, "--config", emptyConfig(t), "--timings", "--quiet", "tokenize", path)
	require.Equal(t, 0, quiet.code)
	assert.NotContains(t, quiet.stderr, "OBS6001")
}

func TestTokenize_BadFlags(t *testing.T) {
	path := writeFile(t, t.TempDir(), "x.scm", "")
	cfg := emptyConfig(t)

	cases := map[string][]string{
		"format":      {"tokenize", "--format", "xml", path},
		"diag-format": {"tokenize", "--diag-format", "sarif", path},
		"mode":        {"tokenize", "--mode", "mmap", path},
		"ui":          {"tokenize", "--ui", "maybe", path},
		"context":     {"tokenize", "--context", "11", path},
		"log-level":   {"--log-level", "loud", "tokenize", path},
		"missing":     {"tokenize", filepath.Join(t.TempDir(), "nope.scm")},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			res := runCLI(t, append([]string{"--config", cfg}, args...)...)
			assert.Equal(t, 1, res.code)
			assert.Contains(t, res.stderr, "error: ")
		})
	}
}

func TestLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	path := writeFile(t, t.TempDir(), "l.scm", "(a )")

	res := runCLI(t, "--config", emptyConfig(t), "--log-file", logPath, "tokenize", path)
	require.Equal(t, 0, res.code, res.stderr)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"tokenize start"`)
	assert.NotContains(t, res.stderr, "tokenize start")
}

func TestClean(t *testing.T) {
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	path := writeFile(t, t.TempDir(), "c.scm", "(a )")

	require.Equal(t, 0, runCLI(t, "--config", emptyConfig(t), "tokenize", "--cache", path).code)
	require.DirExists(t, filepath.Join(cacheHome, cacheApp, "tokens"))

	res := runCLI(t, "--config", emptyConfig(t), "clean")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "removed "+filepath.Join(cacheHome, cacheApp))
	assert.NoDirExists(t, filepath.Join(cacheHome, cacheApp, "tokens"))
}

func TestTokenize_MaxDiagnostics(t *testing.T) {
	path := writeFile(t, t.TempDir(), "many.scm", "1x 2x 3x\n")
	res := runCLI(t, "--config", emptyConfig(t), "--color", "off", "--max-diagnostics", "1", "tokenize", "--keep-going", path)

	assert.Equal(t, 1, res.code)
	assert.Equal(t, 1, strings.Count(res.stderr, "LEX1004"))
	assert.Contains(t, res.stderr, "... 2 more diagnostics not shown")
}
