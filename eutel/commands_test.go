package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanesCommand(t *testing.T) {
	out, err := executeCommand(t, "planes", "--exclude", "1,3", "--n", "5")
	require.NoError(t, err)
	assert.Equal(t, "[0 -1 1 -1 2]\n", out)

	_, err = executeCommand(t, "planes", "--n", "-1")
	assert.Error(t, err)
}

func TestAlignCommands(t *testing.T) {
	out, err := executeCommand(t, "align", "matrix", "1", "0", "0", "0", "1", "0", "0", "0", "1")
	require.NoError(t, err)
	assert.Equal(t, "alpha=-0 beta=0 gamma=0\n", out)

	out, err = executeCommand(t, "align", "angles", "0", "0", "0")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "1"))

	_, err = executeCommand(t, "align", "angles", "0", "x", "0")
	assert.Error(t, err)

	_, err = executeCommand(t, "align", "matrix", "1", "0")
	assert.Error(t, err)
}

func TestFilterRequiresConfig(t *testing.T) {
	_, err := executeCommand(t, "filter")
	assert.Error(t, err)
}
