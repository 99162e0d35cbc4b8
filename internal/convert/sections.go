package convert

import "github.com/dgallion1/mdstruct/internal/doctree"

// NestSections returns a new sibling sequence in which every section owns
// the siblings that follow it, up to the next section of the same or a
// shallower level. Nesting is resolved recursively inside each section.
// Nodes are relinked, never copied; nodes is not modified.
func NestSections(nodes []*doctree.Node) []*doctree.Node {
	out := make([]*doctree.Node, 0, len(nodes))
	for i := 0; i < len(nodes); {
		n := nodes[i]
		i++
		if !n.IsSection() {
			out = append(out, n)
			continue
		}

		end := i
		for end < len(nodes) && !closesSection(nodes[end], n.Level) {
			end++
		}

		children := make([]*doctree.Node, 0, len(n.Children)+end-i)
		children = append(children, n.Children...)
		children = append(children, nodes[i:end]...)
		n.Children = NestSections(children)

		out = append(out, n)
		i = end
	}
	return out
}

func closesSection(n *doctree.Node, level int) bool {
	return n.IsSection() && n.Level <= level
}

// SectionNormalizer nests the top-level sections of a converted tree.
type SectionNormalizer struct{}

// Run implements Postprocessor.
func (SectionNormalizer) Run(root *doctree.Node) *doctree.Node {
	if root == nil {
		return nil
	}
	root.Children = NestSections(root.Children)
	return root
}
