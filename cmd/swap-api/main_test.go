package main

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()
	os.Args = []string{"cmd", "--config=./swap.yaml", "--check-config"}

	// fresh flag set so repeated runs don't redefine flags
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	cfgPath, check := parseFlags()
	assert.Equal(t, "./swap.yaml", cfgPath)
	assert.True(t, check)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))

	_, err = newLogger("loud")
	assert.Error(t, err)
}
