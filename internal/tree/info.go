package tree

// InfoType distinguishes suite and test descriptors.
type InfoType string

const (
	InfoSuite InfoType = "suite"
	InfoTest  InfoType = "test"
)

// Info is the descriptor handed to a test explorer host.
type Info struct {
	Type     InfoType `json:"type"`
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Children []*Info  `json:"children,omitempty"`
}

// Describe returns the descriptor tree rooted at the snapshot root.
func (s *Snapshot) Describe() *Info {
	return s.describe(s.Root.ID)
}

func (s *Snapshot) describe(id string) *Info {
	n, ok := s.Lookup(id)
	if !ok {
		return nil
	}
	switch n := n.(type) {
	case *CaseNode:
		return &Info{Type: InfoTest, ID: n.ID, Label: n.Label, File: n.File, Line: n.Line}
	case *SuiteNode:
		info := &Info{Type: InfoSuite, ID: n.ID, Label: n.Label}
		for _, child := range n.ChildIDs {
			if c := s.describe(child); c != nil {
				info.Children = append(info.Children, c)
			}
		}
		return info
	}
	return nil
}
