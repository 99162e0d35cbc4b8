package doctree

import (
	"fmt"
	"strings"
)

// PlainText concatenates the text carried by n and all of its descendants
// in document order.
func PlainText(n *Node) string {
	var sb strings.Builder
	writeText(&sb, n)
	return sb.String()
}

func writeText(sb *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	sb.WriteString(n.Text)
	for _, c := range n.Children {
		writeText(sb, c)
	}
}

// Walk calls fn for n and every descendant, depth first. Returning false
// from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Check verifies the shape of a tree: only composite kinds have children,
// composite kinds carry no text of their own and sections have a level
// between 1 and 6.
func Check(n *Node) error {
	var err error
	Walk(n, func(node *Node) bool {
		if err != nil {
			return false
		}
		switch {
		case !node.Kind.Composite() && len(node.Children) > 0:
			err = fmt.Errorf("%s node has %d children", node.Kind, len(node.Children))
		case node.Kind.Composite() && node.Text != "":
			err = fmt.Errorf("%s node carries text", node.Kind)
		case node.IsSection() && (node.Level < 1 || node.Level > 6):
			err = fmt.Errorf("section %q has level %d", node.ID, node.Level)
		}
		return err == nil
	})
	return err
}
