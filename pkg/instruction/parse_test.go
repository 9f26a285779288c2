package instruction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTripsFormattedLines(t *testing.T) {
	var all []Line
	add := func(lines []Line, err error) {
		require.NoError(t, err)
		all = append(all, lines...)
	}
	add(RerunIfChanged("build.rs"))
	add(LinkArg(LinkBins, "-s"))
	add(LinkArgBin("cli", "-static"))
	add(LinkLib(Library{Kind: LibStatic, Name: "z"}))
	add(CheckCfg("api", "1"))
	add(Metadata("k", "v"))
	all = append(all, Warning("hello")...)

	for _, want := range all {
		got, syntax, err := Parse(want.Format(Modern))
		require.NoError(t, err)
		assert.Equal(t, Modern, syntax)
		assert.Equal(t, want, got)
	}
}

func TestParse_Legacy(t *testing.T) {
	l, syntax, err := Parse("cargo:rustc-link-lib=z")
	require.NoError(t, err)
	assert.Equal(t, Legacy, syntax)
	assert.Equal(t, Line{Kind: KindLinkLib, Key: "rustc-link-lib", Value: "z"}, l)

	l, _, err = Parse("cargo:root=/opt")
	require.NoError(t, err)
	assert.Equal(t, KindMetadata, l.Kind)
	assert.Equal(t, "root=/opt", l.Value)
}

func TestParse_Rejects(t *testing.T) {
	for _, s := range []string{"", "hello", "cargo::", "cargo::=x", "cargo::unknown=1", "cargo:nokey"} {
		_, _, err := Parse(s)
		assert.ErrorIs(t, err, ErrNotInstruction, s)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindLinkArg, KindOf("rustc-link-arg-cdylib"))
	assert.Equal(t, KindLinkArg, KindOf("rustc-link-arg-bin"))
	assert.Equal(t, KindCheckCfg, KindOf("rustc-check-cfg"))
	assert.Equal(t, Kind(""), KindOf("rustc-link"))
}
