package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RequiresLocation(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(nil)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--title", "Night Owl",
		"--artist", "Gerry Rafferty",
		"--art", "https://img.example/cover.jpg",
		"--loop=false",
		"--icons", "unicode",
	}))

	loop, err := cmd.Flags().GetBool("loop")
	require.NoError(t, err)
	assert.False(t, loop)
	assert.True(t, cmd.Flags().Changed("loop"))

	title, _ := cmd.Flags().GetString("title")
	assert.Equal(t, "Night Owl", title)
	art, _ := cmd.Flags().GetString("art")
	assert.Equal(t, "https://img.example/cover.jpg", art)
	assert.False(t, cmd.Flags().Changed("album"))
}
