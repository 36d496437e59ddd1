// Package tree models discovered tests as a hierarchy of suites and cases.
//
// A package contributes one structural root, one root per build target,
// one suite per module path prefix of a target, and one case per test.
// Ids are built by joining segments with "::".
package tree

import (
	"slices"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/testparser"
)

// Separator joins id segments and test filter segments.
const Separator = testparser.PathSeparator

// Category groups nodes for display and filtering.
type Category string

const (
	CategoryUnit        Category = "unit"
	CategoryIntegration Category = "integration"
)

// CategoryOf returns the node category of a build target.
func CategoryOf(t cargo.BuildTarget) Category {
	if t.IsUnit() {
		return CategoryUnit
	}
	return CategoryIntegration
}

// Node is either a *SuiteNode or a *CaseNode.
type Node interface {
	NodeID() string
	NodeLabel() string
	isNode()
}

// SuiteNode is an inner node of the tree.
type SuiteNode struct {
	ID    string
	Label string
	// TestSpecName is the cargo test filter for the subtree, with a trailing
	// "::" for module suites. Empty for package and target roots.
	TestSpecName string
	// IsStructural marks grouping nodes without filter semantics of their
	// own. Running one runs its children.
	IsStructural bool
	Category     Category
	PackageName  string
	ChildIDs     []string
	// Targets lists every build target the subtree spans.
	Targets []cargo.BuildTarget
}

func (s *SuiteNode) NodeID() string    { return s.ID }
func (s *SuiteNode) NodeLabel() string { return s.Label }
func (*SuiteNode) isNode()             {}

func (s *SuiteNode) addChild(id string) {
	if !slices.Contains(s.ChildIDs, id) {
		s.ChildIDs = append(s.ChildIDs, id)
	}
}

func (s *SuiteNode) addTarget(t cargo.BuildTarget) {
	if !slices.Contains(s.Targets, t) {
		s.Targets = append(s.Targets, t)
	}
}

// CaseNode is a single test.
type CaseNode struct {
	ID    string
	Label string
	// TestSpecName is the fully qualified test name, used with --exact.
	TestSpecName string
	// NodeIDPrefix is the id of the enclosing target root. Result events
	// parsed with this prefix carry this node's id.
	NodeIDPrefix string
	PackageName  string
	Category     Category
	Target       cargo.BuildTarget
	// File and Line locate the test source. Line is 1-based; zero means
	// unknown.
	File string
	Line int
}

func (c *CaseNode) NodeID() string    { return c.ID }
func (c *CaseNode) NodeLabel() string { return c.Label }
func (*CaseNode) isNode()             {}

// SetLocation records the source location once. Later calls and empty
// files are ignored.
func (c *CaseNode) SetLocation(file string, line int) {
	if c.File != "" || file == "" {
		return
	}
	c.File = file
	if line > 0 {
		c.Line = line
	}
}

// HasLocation reports whether a source file is known.
func (c *CaseNode) HasLocation() bool {
	return c.File != ""
}

// TargetRootID returns the id of the root node of a package target.
func TargetRootID(pkg string, t cargo.BuildTarget) string {
	return pkg + Separator + t.Name + Separator + string(t.Category)
}
