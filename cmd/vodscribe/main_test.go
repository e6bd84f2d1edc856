package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vodscribe/vodscribe/internal/cli"
)

func TestShouldPrintUsageHint(t *testing.T) {
	t.Parallel()

	require.True(t, shouldPrintUsageHint(errors.New("unknown command \"bad\" for \"vodscribe\"")))
	require.True(t, shouldPrintUsageHint(errors.New("unknown flag: --oops")))
	require.True(t, shouldPrintUsageHint(errors.New("accepts 1 arg(s), received 0")))
	require.True(t, shouldPrintUsageHint(errors.New("invalid argument \"four hours\" for \"--chunk-duration\" flag: time: invalid duration \"four hours\"")))
	require.False(t, shouldPrintUsageHint(errors.New("audio path: stat talk.ogg: no such file or directory")))
	require.False(t, shouldPrintUsageHint(errors.New("transcription failed with status 429: rate limit reached")))
	require.False(t, shouldPrintUsageHint(nil))
}

func TestHelpHintTarget(t *testing.T) {
	t.Parallel()

	root := cli.NewRootCmd()
	require.Equal(t, "vodscribe", helpHintTarget(root, []string{"--badflag"}))
	require.Equal(t, "vodscribe", helpHintTarget(root, []string{"badcmd"}))
	require.Equal(t, "vodscribe transcribe", helpHintTarget(root, []string{"transcribe"}))
	require.Equal(t, "vodscribe transcribe", helpHintTarget(root, []string{"transcribe", "--language"}))
}
