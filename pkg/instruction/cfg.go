package instruction

import "strings"

// Cfg enables the cfg option name, as in #[cfg(name)].
func Cfg(name string) ([]Line, error) {
	if err := checkNoNewline("cfg names", name); err != nil {
		return nil, err
	}
	return []Line{{Kind: KindCfg, Key: string(KindCfg), Value: name}}, nil
}

// CfgValue sets the key/value cfg option name="value".
func CfgValue(name, value string) ([]Line, error) {
	if err := checkNoNewline("cfg names", name); err != nil {
		return nil, err
	}
	if err := checkNoNewline("cfg values", value); err != nil {
		return nil, err
	}
	return []Line{{Kind: KindCfg, Key: string(KindCfg), Value: name + `="` + value + `"`}}, nil
}

// CheckCfg declares name as an expected cfg, with the expected values if any.
func CheckCfg(name string, values ...string) ([]Line, error) {
	if err := checkNoNewline("cfg names", name); err != nil {
		return nil, err
	}
	if err := checkNoNewline("cfg values", values...); err != nil {
		return nil, err
	}
	return []Line{{Kind: KindCheckCfg, Key: string(KindCheckCfg), Value: checkCfgExpr(name, values)}}, nil
}

// CheckCfgs declares each of names as an expected cfg without values.
func CheckCfgs(names ...string) ([]Line, error) {
	if err := checkNoNewline("cfg names", names...); err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(names))
	for _, n := range names {
		lines = append(lines, Line{Kind: KindCheckCfg, Key: string(KindCheckCfg), Value: checkCfgExpr(n, nil)})
	}
	return lines, nil
}

func checkCfgExpr(name string, values []string) string {
	if len(values) == 0 {
		return "cfg(" + name + ")"
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return "cfg(" + name + ", values(" + strings.Join(quoted, ", ") + "))"
}
