package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/bizops/internal/certgen"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-hosts", " api.local , 10.0.0.1,", "-ttl", "48h"})
	require.NoError(t, err)
	assert.Equal(t, "certs", opts.dir)
	assert.Equal(t, []string{"api.local", "10.0.0.1"}, opts.hosts)
	assert.Equal(t, "bizops-client", opts.client)
	assert.Equal(t, 48*time.Hour, opts.ttl)

	_, err = parseFlags([]string{"-hosts", " , "})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run([]string{"-dir", dir, "-client", ""}))

	_, err := os.Stat(filepath.Join(dir, certgen.ServerCertFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, certgen.ClientCertFile))
	assert.True(t, os.IsNotExist(err))
}
