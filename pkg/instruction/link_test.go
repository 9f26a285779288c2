package instruction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkArg(t *testing.T) {
	lines, err := LinkArg(LinkAll, "-Wl,--as-needed")
	assert.Equal(t, []string{"cargo::rustc-link-arg=-Wl,--as-needed"}, rendered(t, lines, err))

	for _, target := range []LinkTarget{LinkCdylib, LinkBins, LinkTests, LinkExamples, LinkBenches} {
		lines, err := LinkArg(target, "-x")
		assert.Equal(t, []string{"cargo::rustc-link-arg-" + string(target) + "=-x"}, rendered(t, lines, err))
	}

	_, err = LinkArg(LinkTarget("staticlib"), "-x")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestLinkArgBin(t *testing.T) {
	lines, err := LinkArgBin("server", "-static", "-s")
	assert.Equal(t, []string{
		"cargo::rustc-link-arg-bin=server=-static",
		"cargo::rustc-link-arg-bin=server=-s",
	}, rendered(t, lines, err))
}

func TestLinkLib(t *testing.T) {
	lines, err := LinkLib(
		Library{Name: "z"},
		Library{Kind: LibStatic, Name: "ssl"},
		Library{Kind: LibStatic, Modifiers: "+whole-archive,-bundle", Name: "foo", Rename: "bar"},
		Library{Name: "crypto", Rename: "crypto3"},
	)
	assert.Equal(t, []string{
		"cargo::rustc-link-lib=z",
		"cargo::rustc-link-lib=static=ssl",
		"cargo::rustc-link-lib=static:+whole-archive,-bundle=foo:bar",
		"cargo::rustc-link-lib=crypto:crypto3",
	}, rendered(t, lines, err))

	lines, err = LinkLib(Libraries(LibFramework, "Security", "CoreFoundation")...)
	assert.Equal(t, []string{
		"cargo::rustc-link-lib=framework=Security",
		"cargo::rustc-link-lib=framework=CoreFoundation",
	}, rendered(t, lines, err))
}

func TestLinkLib_Invalid(t *testing.T) {
	_, err := LinkLib(Library{})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = LinkLib(Library{Modifiers: "+verbatim", Name: "x"})
	assert.ErrorIs(t, err, ErrModifiersWithoutKind)

	_, err = LinkLib(Library{Kind: "archive", Name: "x"})
	assert.ErrorIs(t, err, ErrUnknownKind)

	// One bad library rejects the whole call.
	lines, err := LinkLib(Library{Name: "ok"}, Library{Name: "bad\n"})
	assert.ErrorIs(t, err, ErrNewline)
	assert.Nil(t, lines)
}

func TestParseLibrary(t *testing.T) {
	cases := []struct {
		in   string
		want Library
	}{
		{"z", Library{Name: "z"}},
		{"dylib=z", Library{Kind: LibDylib, Name: "z"}},
		{"static:+whole-archive=foo:bar", Library{Kind: LibStatic, Modifiers: "+whole-archive", Name: "foo", Rename: "bar"}},
		{"foo:bar", Library{Name: "foo", Rename: "bar"}},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseLibrary(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
			assert.Equal(t, c.in, got.String())
		})
	}

	_, err := ParseLibrary("=z")
	assert.NoError(t, err, "empty kind is the default kind")
	_, err = ParseLibrary("static=")
	assert.ErrorIs(t, err, ErrEmptyName)
	_, err = ParseLibrary("weird=z")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestLinkSearch(t *testing.T) {
	lines, err := LinkSearch(SearchDefault, "/usr/lib")
	assert.Equal(t, []string{"cargo::rustc-link-search=/usr/lib"}, rendered(t, lines, err))

	for _, kind := range []SearchKind{SearchDependency, SearchCrate, SearchNative, SearchFramework, SearchAll} {
		lines, err := LinkSearch(kind, "/opt/lib")
		assert.Equal(t, []string{"cargo::rustc-link-search=" + string(kind) + "=/opt/lib"}, rendered(t, lines, err))
	}

	_, err = LinkSearch(SearchKind("system"), "/x")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
