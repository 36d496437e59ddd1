package locate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/tree"
)

func newCase(pkg string, target cargo.BuildTarget, spec string) *tree.CaseNode {
	label := spec
	if i := strings.LastIndex(spec, tree.Separator); i >= 0 {
		label = spec[i+len(tree.Separator):]
	}
	return &tree.CaseNode{
		ID:           tree.TargetRootID(pkg, target) + tree.Separator + spec,
		Label:        label,
		TestSpecName: spec,
		PackageName:  pkg,
		Target:       target,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCandidates(t *testing.T) {
	t.Parallel()
	const dir = "/w/core"
	lib := cargo.BuildTarget{Name: "core", Category: cargo.Library}
	mainBin := cargo.BuildTarget{Name: "core", Category: cargo.Binary}
	otherBin := cargo.BuildTarget{Name: "tool", Category: cargo.Binary}
	integ := cargo.BuildTarget{Name: "smoke", Category: cargo.IntegrationTest}

	j := filepath.Join
	tests := []struct {
		name     string
		c        *tree.CaseNode
		expected []string
	}{
		{
			name:     "integration test",
			c:        newCase("core", integ, "checks::it_runs"),
			expected: []string{j(dir, "tests", "smoke.rs"), j(dir, "tests", "smoke", "main.rs")},
		},
		{
			name:     "lib top-level test",
			c:        newCase("core", lib, "it_works"),
			expected: []string{j(dir, "src", "lib.rs")},
		},
		{
			name:     "lib inline tests module",
			c:        newCase("core", lib, "tests::it_works"),
			expected: []string{j(dir, "src", "lib.rs")},
		},
		{
			name: "lib nested module",
			c:    newCase("core", lib, "parse::expr::tests::it_works"),
			expected: []string{
				j(dir, "src", "parse", "expr.rs"),
				j(dir, "src", "parse", "expr", "mod.rs"),
				j(dir, "src", "lib.rs"),
			},
		},
		{
			name: "main binary module",
			c:    newCase("core", mainBin, "cli::tests::parses"),
			expected: []string{
				j(dir, "src", "cli.rs"),
				j(dir, "src", "cli", "mod.rs"),
				j(dir, "src", "main.rs"),
			},
		},
		{
			name:     "main binary root",
			c:        newCase("core", mainBin, "tests::parses"),
			expected: []string{j(dir, "src", "main.rs")},
		},
		{
			name:     "other binary",
			c:        newCase("core", otherBin, "tests::parses"),
			expected: []string{j(dir, "src", "bin", "tool.rs"), j(dir, "src", "bin", "tool", "main.rs")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.expected, Candidates(tt.c, dir)); diff != "" {
				t.Errorf("Candidates() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveCase(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "parse.rs"), "pub fn parse() {}\n\n#[cfg(test)]\nmod tests {\n    #[test]\n    fn it_parses() {}\n}\n")
	writeFile(t, filepath.Join(dir, "tests", "smoke.rs"), "#[test]\nfn smoke() {}\n")

	r := NewResolver(nil)
	lib := cargo.BuildTarget{Name: "core", Category: cargo.Library}

	c := newCase("core", lib, "parse::tests::it_parses")
	r.ResolveCase(c, dir)
	if want := filepath.ToSlash(filepath.Join(dir, "src", "parse.rs")); c.File != want || c.Line != 6 {
		t.Errorf("location = %s:%d, want %s:6", c.File, c.Line, want)
	}

	integ := newCase("core", cargo.BuildTarget{Name: "smoke", Category: cargo.IntegrationTest}, "smoke")
	r.ResolveCase(integ, dir)
	if integ.Line != 2 {
		t.Errorf("integration line = %d, want 2", integ.Line)
	}
}

func TestResolveCase_MissingFile(t *testing.T) {
	t.Parallel()
	c := newCase("core", cargo.BuildTarget{Name: "core", Category: cargo.Library}, "a::b")
	NewResolver(nil).ResolveCase(c, t.TempDir())
	if c.HasLocation() || c.Line != 0 {
		t.Errorf("location = %s:%d, want unset", c.File, c.Line)
	}
}

func TestResolveCase_NameNotFound(t *testing.T) {
	t.Parallel()
	r := NewResolver(nil)
	r.ReadFile = func(string) ([]byte, error) { return []byte("fn other() {}\n"), nil }
	c := newCase("core", cargo.BuildTarget{Name: "core", Category: cargo.Library}, "missing")
	r.ResolveCase(c, "/w")
	if !c.HasLocation() || c.Line != 0 {
		t.Errorf("location = %s:%d, want file with unknown line", c.File, c.Line)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	var reads []string
	r := NewResolver(nil)
	r.ReadFile = func(name string) ([]byte, error) {
		reads = append(reads, name)
		return []byte("#[test]\nfn a() {}\n"), nil
	}

	ws := tree.Empty("w")
	c := newCase("core", cargo.BuildTarget{Name: "core", Category: cargo.Library}, "a")
	ws.Cases[c.ID] = c
	orphan := newCase("gone", cargo.BuildTarget{Name: "gone", Category: cargo.Library}, "a")
	ws.Cases[orphan.ID] = orphan

	r.Resolve(ws, map[string]string{"core": "/w/core"})
	if c.Line != 2 {
		t.Errorf("line = %d, want 2", c.Line)
	}
	if orphan.HasLocation() {
		t.Error("case of an unknown package should stay unresolved")
	}
	if len(reads) != 1 {
		t.Errorf("reads = %v", reads)
	}
}

func TestFindLine(t *testing.T) {
	t.Parallel()
	content := []byte("line one\nfn target() {}\ntarget again\n")
	if got := findLine(content, "target"); got != 2 {
		t.Errorf("findLine() = %d, want 2", got)
	}
	if got := findLine(content, "absent"); got != 0 {
		t.Errorf("findLine(absent) = %d, want 0", got)
	}
	if got := findLine(nil, "x"); got != 0 {
		t.Errorf("findLine(nil) = %d, want 0", got)
	}
}
