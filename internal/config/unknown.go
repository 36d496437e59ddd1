package config

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// detectUnknownFields returns warnings for top-level keys that Config does
// not know. raw is the decoded YAML document.
func detectUnknownFields(raw map[string]any) []string {
	known := getYAMLFields(reflect.TypeOf(Config{}))

	var warnings []string
	for key := range raw {
		if key == "$schema" {
			continue // $schema is explicitly allowed and ignored
		}
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
		}
	}
	slices.Sort(warnings)
	return warnings
}

// getYAMLFields returns a map of known YAML field names for a struct type.
func getYAMLFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		// Extract field name from tag (before comma)
		name := strings.Split(tag, ",")[0]
		if name != "" {
			fields[name] = true
		}
	}
	return fields
}
