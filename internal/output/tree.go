package output

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/list"

	"github.com/AndreyAkinshin/cargotest/internal/tree"
)

// Tree prints the test tree, one item per node, with source positions of
// test cases when known.
func (w *Writer) Tree(info *tree.Info) {
	if info == nil {
		return
	}
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)
	w.appendInfo(l, info)
	w.Println("%s", l.Render())
}

func (w *Writer) appendInfo(l list.Writer, info *tree.Info) {
	l.AppendItem(w.itemLabel(info))
	if len(info.Children) == 0 {
		return
	}
	l.Indent()
	for _, child := range info.Children {
		w.appendInfo(l, child)
	}
	l.UnIndent()
}

func (w *Writer) itemLabel(info *tree.Info) string {
	if info.Type == tree.InfoSuite {
		return w.paint(color.Bold).Sprint(info.Label)
	}
	if info.File == "" {
		return info.Label
	}
	return info.Label + " " + w.paint(color.Faint).Sprint(fmt.Sprintf("%s:%d", info.File, max(info.Line, 1)))
}

// TestIDs prints the id of every test case, one per line, in tree order.
func (w *Writer) TestIDs(info *tree.Info) {
	if info == nil {
		return
	}
	if info.Type == tree.InfoTest {
		w.Println("%s", info.ID)
		return
	}
	for _, child := range info.Children {
		w.TestIDs(child)
	}
}
