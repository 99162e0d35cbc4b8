package doctree

import "fmt"

// Kind identifies the variant of a Node.
type Kind int

const (
	KindContainer Kind = iota
	KindSection
	KindTitle
	KindParagraph
	KindEmphasis
	KindStrong
	KindLiteral
	KindBulletList
	KindEnumeratedList
	KindListItem
	KindLiteralBlock
	KindText
)

var kindNames = [...]string{
	KindContainer:      "container",
	KindSection:        "section",
	KindTitle:          "title",
	KindParagraph:      "paragraph",
	KindEmphasis:       "emphasis",
	KindStrong:         "strong",
	KindLiteral:        "literal",
	KindBulletList:     "bullet_list",
	KindEnumeratedList: "enumerated_list",
	KindListItem:       "list_item",
	KindLiteralBlock:   "literal_block",
	KindText:           "text",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Composite reports whether nodes of this kind own child nodes.
func (k Kind) Composite() bool {
	switch k {
	case KindContainer, KindSection, KindTitle, KindParagraph,
		KindBulletList, KindEnumeratedList, KindListItem:
		return true
	}
	return false
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown node kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown node kind %q", string(b))
}

// Node is one element of the structured document tree.
type Node struct {
	Kind     Kind    `json:"type" yaml:"type"`
	Level    int     `json:"level,omitempty" yaml:"level,omitempty"` // Section heading level, 1-6
	ID       string  `json:"id,omitempty" yaml:"id,omitempty"`       // Section anchor
	Text     string  `json:"text,omitempty" yaml:"text,omitempty"`   // Leaf content
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewContainer returns an empty composite node of the given kind.
func NewContainer(kind Kind) *Node {
	return &Node{Kind: kind}
}

// NewSection returns a section at level whose only child is title.
func NewSection(level int, id string, title *Node) *Node {
	return &Node{Kind: KindSection, Level: level, ID: id, Children: []*Node{title}}
}

// NewLeaf returns a text-carrying node of the given kind.
func NewLeaf(kind Kind, text string) *Node {
	return &Node{Kind: kind, Text: text}
}

// NewText returns a raw inline text run.
func NewText(value string) *Node {
	return &Node{Kind: KindText, Text: value}
}

// Append adds children in order.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// IsSection reports whether n is a section node.
func (n *Node) IsSection() bool {
	return n != nil && n.Kind == KindSection
}

// Title returns the title child of a section, or nil.
func (n *Node) Title() *Node {
	if !n.IsSection() {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == KindTitle {
			return c
		}
	}
	return nil
}

// Document is a converted document plus the metadata its reader found.
type Document struct {
	Title  string         `json:"title" yaml:"title"`
	Source string         `json:"source,omitempty" yaml:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
	Root   *Node          `json:"tree" yaml:"tree"`
}

// Chunk is a sized text segment with structural context.
type Chunk struct {
	Text       string   `json:"text" yaml:"text"`             // Chunk text content
	Index      int      `json:"index" yaml:"index"`           // Sequence number within document
	Breadcrumb []string `json:"breadcrumb" yaml:"breadcrumb"` // Section title hierarchy, e.g. ["Install", "Linux"]
	SectionID  string   `json:"section_id,omitempty" yaml:"section_id,omitempty"`
}
