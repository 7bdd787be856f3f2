package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// ConfigPaths returns the configuration files consulted when --config is
// not given. Missing files are ignored.
func ConfigPaths() []string {
	return []string{
		"./poesaver.yaml",
		"~/.config/poesaver/config.yaml",
	}
}

// YAMLLoader is a kong.ConfigurationLoader for flat YAML files whose keys
// are flag names, for example:
//
//	directory: ./poe
//	delay: 2.5
//	no-footer: true
func YAMLLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		if flag.Name == "config" {
			return nil, nil
		}
		v, ok := values[flag.Name]
		if !ok {
			v, ok = values[strings.ReplaceAll(flag.Name, "-", "_")]
		}
		if !ok || v == nil {
			return nil, nil
		}
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("config key %q must be a scalar", flag.Name)
		}
		return fmt.Sprint(v), nil
	}), nil
}
