package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it wrote to
// stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "streamql", cmd.Use)
	assert.Contains(t, cmd.Long, "common AST")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"parse", "fmt", "plan", "tree", "check", "test", "replay"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dialectFlag := cmd.PersistentFlags().Lookup("dialect")
	require.NotNil(t, dialectFlag)
	assert.Equal(t, "d", dialectFlag.Shorthand)
	assert.Equal(t, "sql", dialectFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("charset"))
}

func TestCheckCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	checkCmd, _, err := cmd.Find([]string{"check"})
	require.NoError(t, err)

	dbFlag := checkCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)

	workersFlag := checkCmd.Flags().Lookup("workers")
	require.NotNil(t, workersFlag)
	assert.Equal(t, "0", workersFlag.DefValue)
}

func TestFmtCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	fmtCmd, _, err := cmd.Find([]string{"fmt"})
	require.NoError(t, err)

	require.NotNil(t, fmtCmd.Flags().Lookup("upper"))
	require.NotNil(t, fmtCmd.Flags().Lookup("pretty"))
}

func TestInvalidGlobalFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"format", []string{"--format", "xml", "parse", "select a from t"}},
		{"dialect", []string{"--dialect", "cypher", "parse", "select a from t"}},
		{"charset", []string{"--charset", "ebcdic", "parse", "select a from t"}},
		{"missing config", []string{"--config", "/nonexistent/streamql.yaml", "parse", "select a from t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, "streamql.yaml", "limits:\n  max_input_bytes: 10\n")

	_, err := execute(t, "", "--config", path, "parse", "select a from t where a > 1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, "", "--config", path, "parse", "select a")
	require.Error(t, err, "still a syntax error")
}

func TestCharsetOverride(t *testing.T) {
	_, err := execute(t, "", "parse", "select A from t")
	require.NoError(t, err)

	_, err = execute(t, "", "--charset", "lowercase", "parse", "select A from t")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestSplitQueries(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"semicolons", "select a from t; select b from u;", []string{"select a from t", "select b from u"}},
		{"multiline statement", "select a\nfrom t;\nselect b from u", []string{"select a\nfrom t", "select b from u"}},
		{"lines", "select a from t\n\nselect b from u\n", []string{"select a from t", "select b from u"}},
		{"quoted semicolon", "select a from t where b = 'x;y'", []string{"select a from t where b = 'x;y'"}},
		{"double quoted", `t.filter("a = ';'").select(a); u.select(b)`, []string{`t.filter("a = ';'").select(a)`, "u.select(b)"}},
		{"comment", "select a from t // don't; split\n;select b from u", []string{"select a from t // don't; split", "select b from u"}},
		{"comment lines", "// orders\nselect a from t\n  // users\nselect b from u\n", []string{"select a from t", "select b from u"}},
		{"comment statement", "select a from t;\n// trailing note\n", []string{"select a from t"}},
		{"blank", " \n ; ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitQueries(tt.text))
		})
	}
}
