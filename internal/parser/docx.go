package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/mdstruct/internal/markup"
)

// DOCXParser handles .docx files. Heading-styled paragraphs become
// headings; bold and italic runs keep their emphasis.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Source, error) {
	// go-docx needs a ReaderAt+size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	src := &Source{
		Title: stem(filename),
		Meta:  map[string]any{},
		Root:  markup.New("div", ""),
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}

		if level := docxHeadingLevel(para); level > 0 {
			text := docxParagraphText(para)
			if text == "" {
				continue
			}
			src.Root.SubElement(fmt.Sprintf("h%d", level)).Text = text
			continue
		}

		el := docxParagraphElement(para)
		if el == nil {
			continue
		}
		src.Root.Children = append(src.Root.Children, el)
	}

	return src, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		buf.WriteString(docxRunText(run))
	}
	return strings.TrimSpace(buf.String())
}

func docxRunText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		if t, ok := rc.(*docx.Text); ok {
			buf.WriteString(t.Text)
		}
	}
	return buf.String()
}

// docxParagraphElement builds a p element, or nil for a paragraph with no
// text. Bold wins over italic when a run has both.
func docxParagraphElement(para *docx.Paragraph) *markup.Element {
	el := markup.New("p", "")
	empty := true
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		text := docxRunText(run)
		if text == "" {
			continue
		}
		if strings.TrimSpace(text) != "" {
			empty = false
		}

		props := run.RunProperties
		switch {
		case props != nil && props.Bold != nil:
			el.SubElement("strong").Text = text
		case props != nil && props.Italic != nil:
			el.SubElement("em").Text = text
		default:
			el.AppendText(text)
		}
	}
	if empty {
		return nil
	}
	return el
}
