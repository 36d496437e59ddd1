// Package cargo wraps the cargo CLI: build-target classification, workspace
// metadata, and the list/run test queries.
package cargo

import "go.uber.org/zap"

// Category is the closed set of build-target kinds that can contain tests.
type Category string

const (
	// Library covers every library linkage flavor; cargo selects all of them with --lib.
	Library Category = "lib"
	// Binary is a bin target, selected with --bin <name>.
	Binary Category = "bin"
	// IntegrationTest is a tests/*.rs target, selected with --test <name>.
	IntegrationTest Category = "test"
)

// libraryKinds lists the raw kinds that cargo metadata may report for a
// library target. All of them are tested through --lib.
// See https://doc.rust-lang.org/reference/linkage.html
var libraryKinds = map[string]bool{
	"lib":        true,
	"cdylib":     true,
	"dylib":      true,
	"proc-macro": true,
	"rlib":       true,
	"staticlib":  true,
}

// BuildTarget identifies one compiled artifact of a package. It is a value
// type: nodes that reference the same target hold equal copies.
type BuildTarget struct {
	Name     string
	Category Category
}

// Classify maps a raw target kind to a Category. The boolean is false for
// kinds that cannot carry tests we know how to list (example, bench,
// custom-build, ...).
func Classify(kind string) (Category, bool) {
	switch {
	case libraryKinds[kind]:
		return Library, true
	case kind == string(Binary):
		return Binary, true
	case kind == string(IntegrationTest):
		return IntegrationTest, true
	}
	return "", false
}

// NewBuildTarget classifies a metadata target. Unsupported kinds are logged
// and reported with ok=false so the caller can drop the target.
func NewBuildTarget(t Target, logger *zap.Logger) (BuildTarget, bool) {
	kind := t.PrimaryKind()
	category, ok := Classify(kind)
	if !ok {
		if logger != nil {
			logger.Warn("unsupported target type",
				zap.String("kind", kind),
				zap.String("target", t.Name))
		}
		return BuildTarget{}, false
	}
	return BuildTarget{Name: t.Name, Category: category}, true
}

// FilterArgs returns the cargo arguments that scope a command to one target
// of a package.
func FilterArgs(packageName string, t BuildTarget) []string {
	switch t.Category {
	case Library:
		return []string{"-p", packageName, "--lib"}
	case Binary:
		return []string{"-p", packageName, "--bin", t.Name}
	default:
		return []string{"-p", packageName, "--test", t.Name}
	}
}

// IsUnit reports whether tests of this target live next to the source
// (lib and bin) rather than under tests/.
func (t BuildTarget) IsUnit() bool {
	return t.Category == Library || t.Category == Binary
}
