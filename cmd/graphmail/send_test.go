package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBody(t *testing.T) {
	opts := &sendOptions{body: "<p>inline</p>"}
	body, err := opts.resolveBody()
	require.NoError(t, err)
	assert.Equal(t, "<p>inline</p>", body)

	path := filepath.Join(t.TempDir(), "mail.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>from file</p>"), 0644))
	opts = &sendOptions{bodyFile: path}
	body, err = opts.resolveBody()
	require.NoError(t, err)
	assert.Equal(t, "<p>from file</p>", body)

	empty := filepath.Join(t.TempDir(), "empty.html")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = (&sendOptions{bodyFile: empty}).resolveBody()
	assert.Error(t, err)

	_, err = (&sendOptions{bodyFile: filepath.Join(t.TempDir(), "missing.html")}).resolveBody()
	assert.Error(t, err)
}

func TestSendCmd_RequiresFlags(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"send", "--subject", "Hi"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "to")
}

func TestSendCmd_BodyFlagsExclusive(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"send", "--to", "a@b.com", "--subject", "Hi", "--body", "x", "--body-file", "y"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "body")
}
