package main

import (
	"fmt"
	"strings"

	"github.com/loykin/cargobuild/pkg/instruction"
)

// Directives lists instructions to emit from configuration. Entries that carry
// a name and a value use NAME=VALUE so that case-sensitive names survive the
// config loader.
type Directives struct {
	RerunIfChanged    []string `mapstructure:"rerun-if-changed"`
	RerunIfEnvChanged []string `mapstructure:"rerun-if-env-changed"`
	LinkSearch        []string `mapstructure:"link-search"`  // [KIND=]PATH
	LinkLib           []string `mapstructure:"link-lib"`     // [KIND[:MODIFIERS]=]NAME[:RENAME]
	LinkArg           []string `mapstructure:"link-arg"`     // [TARGET=]FLAG
	LinkArgBin        []string `mapstructure:"link-arg-bin"` // BIN=FLAG
	Flags             []string `mapstructure:"flags"`
	Cfg               []string `mapstructure:"cfg"`       // NAME or NAME=VALUE
	CheckCfg          []string `mapstructure:"check-cfg"` // NAME or NAME=V1,V2
	Env               []string `mapstructure:"env"`       // NAME=VALUE
	Metadata          []string `mapstructure:"metadata"`  // KEY=VALUE
	Warning           []string `mapstructure:"warning"`
	Error             []string `mapstructure:"error"`
}

// Lines builds every directive in a fixed kind order. Any invalid entry fails
// the whole set so nothing is emitted partially.
func (d Directives) Lines() ([]instruction.Line, error) {
	var out []instruction.Line
	add := func(what string, lines []instruction.Line, err error) error {
		if err != nil {
			return fmt.Errorf("directives.%s: %w", what, err)
		}
		out = append(out, lines...)
		return nil
	}

	lines, err := instruction.RerunIfChanged(d.RerunIfChanged...)
	if err := add("rerun-if-changed", lines, err); err != nil {
		return nil, err
	}
	lines, err = instruction.RerunIfEnvChanged(d.RerunIfEnvChanged...)
	if err := add("rerun-if-env-changed", lines, err); err != nil {
		return nil, err
	}
	for _, s := range d.LinkSearch {
		kind, path := parseSearch(s)
		lines, err := instruction.LinkSearch(kind, path)
		if err := add("link-search", lines, err); err != nil {
			return nil, err
		}
	}
	libs := make([]instruction.Library, 0, len(d.LinkLib))
	for _, s := range d.LinkLib {
		lib, err := instruction.ParseLibrary(s)
		if err != nil {
			return nil, fmt.Errorf("directives.link-lib: %w", err)
		}
		libs = append(libs, lib)
	}
	lines, err = instruction.LinkLib(libs...)
	if err := add("link-lib", lines, err); err != nil {
		return nil, err
	}
	for _, s := range d.LinkArg {
		target, flag := parseLinkArg(s)
		lines, err := instruction.LinkArg(target, flag)
		if err := add("link-arg", lines, err); err != nil {
			return nil, err
		}
	}
	for _, s := range d.LinkArgBin {
		bin, flag, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("directives.link-arg-bin: %q is not BIN=FLAG", s)
		}
		lines, err := instruction.LinkArgBin(bin, flag)
		if err := add("link-arg-bin", lines, err); err != nil {
			return nil, err
		}
	}
	lines, err = instruction.Flags(d.Flags...)
	if err := add("flags", lines, err); err != nil {
		return nil, err
	}
	for _, s := range d.Cfg {
		name, value, ok := strings.Cut(s, "=")
		lines, err := instruction.Cfg(name)
		if ok {
			lines, err = instruction.CfgValue(name, value)
		}
		if err := add("cfg", lines, err); err != nil {
			return nil, err
		}
	}
	for _, s := range d.CheckCfg {
		name, values, ok := strings.Cut(s, "=")
		var vals []string
		if ok && values != "" {
			vals = strings.Split(values, ",")
		}
		lines, err := instruction.CheckCfg(name, vals...)
		if err := add("check-cfg", lines, err); err != nil {
			return nil, err
		}
	}
	for _, s := range d.Env {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("directives.env: %q is not NAME=VALUE", s)
		}
		lines, err := instruction.Env(name, value)
		if err := add("env", lines, err); err != nil {
			return nil, err
		}
	}
	for _, s := range d.Metadata {
		key, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("directives.metadata: %q is not KEY=VALUE", s)
		}
		lines, err := instruction.Metadata(key, value)
		if err := add("metadata", lines, err); err != nil {
			return nil, err
		}
	}
	for _, msg := range d.Warning {
		out = append(out, instruction.Warning(msg)...)
	}
	for _, msg := range d.Error {
		out = append(out, instruction.Error(msg)...)
	}
	return out, nil
}

// parseLinkArg splits TARGET=FLAG when TARGET names a link-arg target;
// otherwise the whole entry is a flag for every target.
func parseLinkArg(s string) (instruction.LinkTarget, string) {
	target, flag, ok := strings.Cut(s, "=")
	if !ok {
		return instruction.LinkAll, s
	}
	switch t := instruction.LinkTarget(target); t {
	case instruction.LinkCdylib, instruction.LinkBins, instruction.LinkTests,
		instruction.LinkExamples, instruction.LinkBenches:
		return t, flag
	}
	return instruction.LinkAll, s
}

// parseSearch splits KIND=PATH when KIND names a search kind; otherwise the
// whole entry is the path.
func parseSearch(s string) (instruction.SearchKind, string) {
	kind, path, ok := strings.Cut(s, "=")
	if !ok {
		return instruction.SearchDefault, s
	}
	switch k := instruction.SearchKind(kind); k {
	case instruction.SearchDependency, instruction.SearchCrate, instruction.SearchNative,
		instruction.SearchFramework, instruction.SearchAll:
		return k, path
	}
	return instruction.SearchDefault, s
}
