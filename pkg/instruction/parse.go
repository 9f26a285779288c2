package instruction

import (
	"errors"
	"strings"
)

// ErrNotInstruction is returned by Parse for output that cargo would not
// interpret as an instruction.
var ErrNotInstruction = errors.New("not a cargo instruction")

var knownKinds = []Kind{
	KindRerunIfChanged, KindRerunIfEnvChanged, KindLinkArg, KindLinkLib,
	KindLinkSearch, KindFlags, KindCfg, KindCheckCfg, KindEnv,
	KindError, KindWarning, KindMetadata,
}

// KindOf maps an instruction key such as "rustc-link-arg-bins" to its Kind.
// Unknown keys yield "".
func KindOf(key string) Kind {
	if strings.HasPrefix(key, string(KindLinkArg)) {
		return KindLinkArg
	}
	for _, k := range knownKinds {
		if key == string(k) {
			return k
		}
	}
	return ""
}

// Parse splits a rendered instruction (without newline) back into a Line and
// the syntax it was written in. In the legacy syntax unknown keys are metadata.
func Parse(s string) (Line, Syntax, error) {
	syntax := Modern
	rest, ok := strings.CutPrefix(s, Modern.Prefix())
	if !ok {
		syntax = Legacy
		if rest, ok = strings.CutPrefix(s, Legacy.Prefix()); !ok {
			return Line{}, syntax, ErrNotInstruction
		}
	}
	key, value, ok := strings.Cut(rest, "=")
	if !ok || key == "" {
		return Line{}, syntax, ErrNotInstruction
	}
	kind := KindOf(key)
	if kind == "" {
		if syntax == Modern {
			return Line{}, syntax, ErrNotInstruction
		}
		return Line{Kind: KindMetadata, Key: string(KindMetadata), Value: rest}, syntax, nil
	}
	return Line{Kind: kind, Key: key, Value: value}, syntax, nil
}
