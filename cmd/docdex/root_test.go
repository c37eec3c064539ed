// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Help(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"--help"})

	err := root.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "docdex")
	assert.Contains(t, buf.String(), "start")
	assert.Contains(t, buf.String(), "ingest")
	assert.Contains(t, buf.String(), "search")
	assert.Contains(t, buf.String(), "version")
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"version"})

	err := root.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "docdex")
}

func TestStartCommand_MissingConfigFile(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"start", "--config", "/nonexistent/path.yaml"})

	err := root.Execute()
	assert.Error(t, err)
}

func TestStartCommand_InvalidConfigSurfaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docdex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: cassandra\n"), 0o600))

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"start", "--config", path})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"search"})

	err := root.Execute()
	assert.Error(t, err)
}
