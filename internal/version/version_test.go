package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildInfoWith(settings ...debug.BuildSetting) func() (*debug.BuildInfo, bool) {
	return func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: settings}, true
	}
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	t.Parallel()

	got := resolveVersion("1.2.3", func() (*debug.BuildInfo, bool) { return nil, false })
	require.Equal(t, "1.2.3", got)
}

func TestResolveEmptyBaseFallsBack(t *testing.T) {
	t.Parallel()

	got := resolveVersion("", func() (*debug.BuildInfo, bool) { return nil, false })
	require.Equal(t, "0.0.0", got)
}

func TestResolveAppendsRevision(t *testing.T) {
	t.Parallel()

	got := resolveVersion("1.2.3", buildInfoWith(
		debug.BuildSetting{Key: "vcs.revision", Value: "abcdef0123456789abcdef"},
	))
	require.Equal(t, "1.2.3+abcdef012345", got)
}

func TestResolveMarksDirtyTree(t *testing.T) {
	t.Parallel()

	got := resolveVersion("1.2.3", buildInfoWith(
		debug.BuildSetting{Key: "vcs.revision", Value: "abc123"},
		debug.BuildSetting{Key: "vcs.modified", Value: "true"},
	))
	require.Equal(t, "1.2.3+abc123-dirty", got)
}

func TestResolveWithoutRevision(t *testing.T) {
	t.Parallel()

	got := resolveVersion("1.2.3", buildInfoWith())
	require.Equal(t, "1.2.3", got)
}
