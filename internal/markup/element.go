// Package markup holds the tagged element tree that format readers produce
// and the converter consumes.
package markup

// Element is one tagged node of a parsed markup tree. Text is the inline
// text before the first child; Tail is the text that follows the element
// inside its parent. An empty string means no text.
type Element struct {
	Tag      string
	Text     string
	Tail     string
	Children []*Element
}

// New returns an element with the given tag and leading text.
func New(tag, text string, children ...*Element) *Element {
	return &Element{Tag: tag, Text: text, Children: children}
}

// SubElement appends a new child element to e and returns it.
func (e *Element) SubElement(tag string) *Element {
	c := &Element{Tag: tag}
	e.Children = append(e.Children, c)
	return c
}

// AppendText adds s to the inline stream of e: to Text while e has no
// children, otherwise to the tail of the last child.
func (e *Element) AppendText(s string) {
	if s == "" {
		return
	}
	if len(e.Children) == 0 {
		e.Text += s
		return
	}
	last := e.Children[len(e.Children)-1]
	last.Tail += s
}

// WithTail sets the tail text and returns e.
func (e *Element) WithTail(tail string) *Element {
	e.Tail = tail
	return e
}
