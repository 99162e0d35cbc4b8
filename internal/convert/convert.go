package convert

import (
	"github.com/dgallion1/mdstruct/internal/doctree"
	"github.com/dgallion1/mdstruct/internal/markup"
)

// ElementParser produces an element tree from Markdown source. The root
// element must be kept, not stripped.
type ElementParser interface {
	Parse(src []byte) *markup.Element
}

// Backend builds the structured tree from an element tree.
type Backend interface {
	Build(root *markup.Element) (*doctree.Node, error)
}

// Postprocessor rewrites a built tree before it is returned.
type Postprocessor interface {
	Run(root *doctree.Node) *doctree.Node
}

// Converter wires a parser, a tree-building backend and postprocessors.
type Converter struct {
	Parser         ElementParser
	Backend        Backend
	Postprocessors []Postprocessor
}

// New returns a converter that parses with goldmark, builds with Visitor
// and nests sections as its only postprocessing step.
func New() *Converter {
	return &Converter{
		Parser:         markup.NewParser(),
		Backend:        Visitor{},
		Postprocessors: []Postprocessor{SectionNormalizer{}},
	}
}

// NewFlat returns a converter that leaves headings un-nested.
func NewFlat() *Converter {
	c := New()
	c.Postprocessors = nil
	return c
}

// Convert parses markdown and returns the root container node.
func (c *Converter) Convert(markdown string) (*doctree.Node, error) {
	return c.ConvertElement(c.Parser.Parse([]byte(markdown)))
}

// ConvertElement runs the backend and postprocessors over an already
// parsed element tree.
func (c *Converter) ConvertElement(root *markup.Element) (*doctree.Node, error) {
	node, err := c.Backend.Build(root)
	if err != nil {
		return nil, err
	}
	for _, p := range c.Postprocessors {
		node = p.Run(node)
	}
	return node, nil
}

var defaultConverter = New()

// Convert converts markdown with the default converter.
func Convert(markdown string) (*doctree.Node, error) {
	return defaultConverter.Convert(markdown)
}
