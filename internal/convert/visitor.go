// Package convert maps markup element trees onto structured document trees.
package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dgallion1/mdstruct/internal/doctree"
	"github.com/dgallion1/mdstruct/internal/markup"
	"github.com/goliatone/go-slug"
)

// UnsupportedTagError reports an element whose tag has no mapping.
type UnsupportedTagError struct {
	Tag string
}

func (e *UnsupportedTagError) Error() string {
	return fmt.Sprintf("unsupported element: %q", e.Tag)
}

// Visitor builds one structured node per element.
type Visitor struct{}

// Build implements Backend.
func (v Visitor) Build(root *markup.Element) (*doctree.Node, error) {
	return v.Visit(root)
}

// Visit converts el and its descendants. Any unrecognized tag aborts the
// whole conversion and nothing is returned.
func (v Visitor) Visit(el *markup.Element) (*doctree.Node, error) {
	switch el.Tag {
	case "div":
		return v.container(doctree.KindContainer, el)
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return v.heading(el)
	case "p":
		return v.container(doctree.KindParagraph, el)
	case "em":
		return doctree.NewLeaf(doctree.KindEmphasis, el.Text), nil
	case "strong":
		return doctree.NewLeaf(doctree.KindStrong, el.Text), nil
	case "code":
		return doctree.NewLeaf(doctree.KindLiteral, el.Text), nil
	case "ul":
		return v.container(doctree.KindBulletList, el)
	case "ol":
		return v.container(doctree.KindEnumeratedList, el)
	case "li":
		return v.container(doctree.KindListItem, el)
	case "pre", "blockquote":
		return doctree.NewLeaf(doctree.KindLiteralBlock, firstChildText(el)), nil
	default:
		return nil, &UnsupportedTagError{Tag: el.Tag}
	}
}

// container interleaves el's text, its converted children and their tails.
func (v Visitor) container(kind doctree.Kind, el *markup.Element) (*doctree.Node, error) {
	node := doctree.NewContainer(kind)
	if present(el.Text) {
		node.Append(doctree.NewText(el.Text))
	}
	for _, child := range el.Children {
		n, err := v.Visit(child)
		if err != nil {
			return nil, err
		}
		node.Append(n)
		if present(child.Tail) {
			node.Append(doctree.NewText(child.Tail))
		}
	}
	return node, nil
}

func (v Visitor) heading(el *markup.Element) (*doctree.Node, error) {
	title, err := v.container(doctree.KindTitle, el)
	if err != nil {
		return nil, err
	}
	level := int(el.Tag[1] - '0')
	return doctree.NewSection(level, sectionID(level, title), title), nil
}

// present treats the empty string and a lone newline as no text.
func present(s string) bool {
	return s != "" && s != "\n"
}

// firstChildText returns the text of the first child, or "" for an
// element without children.
func firstChildText(el *markup.Element) string {
	if len(el.Children) == 0 {
		return ""
	}
	return el.Children[0].Text
}

// sectionID slugs the title text, transliterating accented letters first.
// Titles that slug to nothing, such as symbols or non-Latin scripts, get a
// stable ID derived from the text.
func sectionID(level int, title *doctree.Node) string {
	text := strings.TrimSpace(doctree.PlainText(title))
	if id, err := slug.HashNormalize(text); err == nil {
		if slug.IsValid(id) {
			return id
		}
		if id, err := slug.Normalize(id); err == nil {
			return id
		}
	}
	if text == "" {
		return fmt.Sprintf("section-h%d", level)
	}
	sum := sha256.Sum256([]byte(text))
	return "section-" + hex.EncodeToString(sum[:4])
}
