package tree

// WorkspaceRootID is the id of the node grouping every package. Cargo
// package names cannot contain '@'.
const WorkspaceRootID = "@workspace"

// Snapshot is a complete tree. Once published it is read-only; a reload
// builds a new Snapshot instead of mutating the current one.
type Snapshot struct {
	Root   *SuiteNode
	Suites map[string]*SuiteNode
	Cases  map[string]*CaseNode
}

func newSnapshot(root *SuiteNode) *Snapshot {
	return &Snapshot{
		Root:   root,
		Suites: map[string]*SuiteNode{root.ID: root},
		Cases:  make(map[string]*CaseNode),
	}
}

// Empty returns a snapshot holding only a workspace root.
func Empty(label string) *Snapshot {
	return newSnapshot(&SuiteNode{
		ID:           WorkspaceRootID,
		Label:        label,
		IsStructural: true,
		Category:     CategoryUnit,
	})
}

// Merge combines package snapshots under one structural workspace root.
// Nil entries are skipped. Package order is preserved.
func Merge(label string, packages []*Snapshot) *Snapshot {
	ws := Empty(label)
	for _, p := range packages {
		if p == nil {
			continue
		}
		ws.Root.addChild(p.Root.ID)
		for id, s := range p.Suites {
			ws.Suites[id] = s
		}
		for id, c := range p.Cases {
			ws.Cases[id] = c
		}
	}
	return ws
}

// Lookup resolves an id to a suite or a case.
func (s *Snapshot) Lookup(id string) (Node, bool) {
	if suite, ok := s.Suites[id]; ok {
		return suite, true
	}
	if c, ok := s.Cases[id]; ok {
		return c, true
	}
	return nil, false
}

// Suite returns the suite with the given id.
func (s *Snapshot) Suite(id string) (*SuiteNode, bool) {
	suite, ok := s.Suites[id]
	return suite, ok
}

// Case returns the case with the given id.
func (s *Snapshot) Case(id string) (*CaseNode, bool) {
	c, ok := s.Cases[id]
	return c, ok
}

// Walk visits every node reachable from the root depth-first, children in
// order. Returning false from fn skips the node's children.
func (s *Snapshot) Walk(fn func(n Node, depth int) bool) {
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		n, ok := s.Lookup(id)
		if !ok || !fn(n, depth) {
			return
		}
		if suite, isSuite := n.(*SuiteNode); isSuite {
			for _, child := range suite.ChildIDs {
				visit(child, depth+1)
			}
		}
	}
	visit(s.Root.ID, 0)
}

// CaseCount returns the number of test cases.
func (s *Snapshot) CaseCount() int {
	return len(s.Cases)
}
