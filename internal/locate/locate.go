// Package locate guesses where a discovered test is defined.
//
// Resolution is best effort: the candidate file is derived from cargo's
// source layout conventions and the line is the first one mentioning the
// test name. Any failure leaves the case without a location.
package locate

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/tree"
)

// testsModule is the conventional name of an inline test module.
const testsModule = "tests"

// Resolver resolves source locations of test cases.
type Resolver struct {
	// ReadFile defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
	logger   *zap.Logger
}

// NewResolver creates a resolver reading from the local file system.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{ReadFile: os.ReadFile, logger: logger}
}

// Resolve sets File and Line on every case of the snapshot. packageDirs maps
// package names to package root directories; cases of unknown packages are
// skipped.
func (r *Resolver) Resolve(snap *tree.Snapshot, packageDirs map[string]string) {
	for _, c := range snap.Cases {
		dir, ok := packageDirs[c.PackageName]
		if !ok {
			continue
		}
		r.ResolveCase(c, dir)
	}
}

// ResolveCase sets the location of one case. It never fails.
func (r *Resolver) ResolveCase(c *tree.CaseNode, packageDir string) {
	if c.HasLocation() {
		return
	}
	for _, candidate := range Candidates(c, packageDir) {
		content, err := r.ReadFile(candidate)
		if err != nil {
			r.logger.Debug("source candidate not readable",
				zap.String("test", c.ID),
				zap.String("file", candidate),
				zap.Error(err))
			continue
		}
		c.SetLocation(filepath.ToSlash(candidate), findLine(content, c.Label))
		return
	}
	r.logger.Debug("no source file found", zap.String("test", c.ID))
}

// Candidates lists the files that may define a test, most likely first.
func Candidates(c *tree.CaseNode, packageDir string) []string {
	src := filepath.Join(packageDir, "src")
	modulePath := modulePathOf(c)

	switch c.Target.Category {
	case cargo.IntegrationTest:
		return []string{
			filepath.Join(packageDir, "tests", c.Target.Name+".rs"),
			filepath.Join(packageDir, "tests", c.Target.Name, "main.rs"),
		}
	case cargo.Binary:
		if c.Target.Name == c.PackageName {
			return unitCandidates(src, "main.rs", modulePath)
		}
		binDir := filepath.Join(src, "bin", c.Target.Name)
		var files []string
		if mod := sourceModule(modulePath); len(mod) > 0 {
			files = moduleFiles(binDir, mod)
		}
		return append(files, binDir+".rs", filepath.Join(binDir, "main.rs"))
	default:
		return unitCandidates(src, "lib.rs", modulePath)
	}
}

// unitCandidates maps a module path to the module file, falling back to
// the crate root.
func unitCandidates(src, crateRoot string, modulePath []string) []string {
	mod := sourceModule(modulePath)
	if len(mod) == 0 {
		return []string{filepath.Join(src, crateRoot)}
	}
	return append(moduleFiles(src, mod), filepath.Join(src, crateRoot))
}

// moduleFiles returns both layouts of a module: a/b.rs and a/b/mod.rs.
func moduleFiles(base string, mod []string) []string {
	rel := filepath.Join(mod...)
	return []string{
		filepath.Join(base, rel+".rs"),
		filepath.Join(base, rel, "mod.rs"),
	}
}

// sourceModule returns the module segments before the first inline
// "tests" module. Those name the file a unit test lives in.
//
// A user module literally named "tests" deeper in the path truncates the
// path there as well.
func sourceModule(modulePath []string) []string {
	for i, segment := range modulePath {
		if segment == testsModule {
			return modulePath[:i]
		}
	}
	return modulePath
}

// modulePathOf returns the module segments of a case, without its name.
func modulePathOf(c *tree.CaseNode) []string {
	segments := strings.Split(c.TestSpecName, tree.Separator)
	return segments[:len(segments)-1]
}

// findLine returns the 1-based number of the first line containing name,
// or 0.
func findLine(content []byte, name string) int {
	if name == "" {
		return 0
	}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for n := 1; scanner.Scan(); n++ {
		if strings.Contains(scanner.Text(), name) {
			return n
		}
	}
	return 0
}
