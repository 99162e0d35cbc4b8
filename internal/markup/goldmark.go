package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Parser turns Markdown into an element tree using goldmark. The document
// is always wrapped in a single "div" root.
type Parser struct {
	md goldmark.Markdown
}

// NewParser returns a CommonMark parser with no extensions enabled.
func NewParser(opts ...goldmark.Option) *Parser {
	return &Parser{md: goldmark.New(opts...)}
}

// Parse parses src and returns the root "div" element.
func (p *Parser) Parse(src []byte) *Element {
	doc := p.md.Parser().Parse(text.NewReader(src))
	b := &builder{src: src}
	root := &Element{Tag: "div"}
	b.blocks(root, doc)
	return root
}

// ParseString is Parse for string input.
func (p *Parser) ParseString(src string) *Element {
	return p.Parse([]byte(src))
}

type builder struct {
	src []byte
}

// blocks appends the converted children of n to parent.
func (b *builder) blocks(parent *Element, n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.block(parent, c)
	}
}

func (b *builder) block(parent *Element, n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		el := parent.SubElement(fmt.Sprintf("h%d", node.Level))
		b.inlines(el, node)
	case *ast.Paragraph:
		el := parent.SubElement("p")
		b.inlines(el, node)
	case *ast.TextBlock:
		// Tight list items carry their inline content directly.
		b.inlines(parent, node)
	case *ast.List:
		tag := "ul"
		if node.IsOrdered() {
			tag = "ol"
		}
		el := parent.SubElement(tag)
		b.blocks(el, node)
	case *ast.ListItem:
		el := parent.SubElement("li")
		b.blocks(el, node)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		pre := parent.SubElement("pre")
		code := pre.SubElement("code")
		code.Text = b.lines(n)
	case *ast.Blockquote:
		el := parent.SubElement("blockquote")
		b.blocks(el, node)
	case *ast.ThematicBreak:
		parent.SubElement("hr")
	case *ast.HTMLBlock:
		el := parent.SubElement("html")
		el.Text = b.lines(n)
	default:
		el := parent.SubElement(strings.ToLower(n.Kind().String()))
		b.blocks(el, n)
	}
}

// inlines appends the inline children of n to the inline stream of el.
func (b *builder) inlines(el *Element, n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.inline(el, c)
	}
}

func (b *builder) inline(el *Element, n ast.Node) {
	switch node := n.(type) {
	case *ast.Text:
		el.AppendText(b.textValue(node.Segment.Value(b.src), node.IsRaw()))
		if node.HardLineBreak() {
			el.SubElement("br")
		} else if node.SoftLineBreak() {
			el.AppendText("\n")
		}
	case *ast.String:
		el.AppendText(b.textValue(node.Value, node.IsRaw() || node.IsCode()))
	case *ast.Emphasis:
		tag := "em"
		if node.Level >= 2 {
			tag = "strong"
		}
		child := el.SubElement(tag)
		b.inlines(child, node)
	case *ast.CodeSpan:
		child := el.SubElement("code")
		child.Text = b.codeSpan(node)
	case *ast.Link, *ast.AutoLink:
		child := el.SubElement("a")
		b.inlines(child, n)
	case *ast.Image:
		el.SubElement("img")
	case *ast.RawHTML:
		child := el.SubElement("html")
		var buf bytes.Buffer
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			buf.Write(seg.Value(b.src))
		}
		child.Text = buf.String()
	default:
		child := el.SubElement(strings.ToLower(n.Kind().String()))
		b.inlines(child, n)
	}
}

func (b *builder) textValue(v []byte, raw bool) string {
	if raw {
		return string(v)
	}
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	v = util.ResolveEntityNames(v)
	return string(v)
}

func (b *builder) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(b.src))
	}
	return buf.String()
}

// codeSpan joins the raw segments of a code span; line endings inside a
// span become spaces.
func (b *builder) codeSpan(n *ast.CodeSpan) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			v := t.Segment.Value(b.src)
			if bytes.HasSuffix(v, []byte("\n")) {
				buf.Write(v[:len(v)-1])
				buf.WriteByte(' ')
			} else {
				buf.Write(v)
			}
		case *ast.String:
			buf.Write(t.Value)
		}
	}
	return buf.String()
}
