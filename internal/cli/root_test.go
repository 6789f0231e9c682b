package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "verdict", cmd.Use)
	assert.Contains(t, cmd.Long, "directives")
	assert.Contains(t, cmd.Long, "# ExpectedType: Int")
	assert.NotContains(t, cmd.Long, "# Expected: Int")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"run", "directives", "history"}

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

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for _, name := range []string{"subject", "pattern", "filter", "timeout", "policy", "encoding", "db", "no-color", "exit-zero"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "flag --%s", name)
	}
	assert.Equal(t, "0s", runCmd.Flags().Lookup("timeout").DefValue)
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	historyCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	for _, name := range []string{"db", "run", "compare", "limit"} {
		assert.NotNil(t, historyCmd.Flags().Lookup(name), "flag --%s", name)
	}
	assert.Equal(t, "20", historyCmd.Flags().Lookup("limit").DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, _, err := executeCommand(t, "--format", "invalid", "run", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestNewLogger_Verbose(t *testing.T) {
	buf := &bytes.Buffer{}
	newLogger(true, buf).Debug("tests discovered", "count", 3)
	assert.Contains(t, buf.String(), "tests discovered")
	assert.Contains(t, buf.String(), "count=3")

	quiet := &bytes.Buffer{}
	newLogger(false, quiet).Error("never shown")
	assert.Empty(t, quiet.String())
}
