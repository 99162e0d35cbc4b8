package pipeline

import (
	"bytes"
	"time"

	"github.com/dgallion1/mdstruct/internal/convert"
	"github.com/dgallion1/mdstruct/internal/doctree"
	"github.com/dgallion1/mdstruct/internal/parser"
)

// Read parses data with the reader registered for filename's extension.
func Read(filename string, data []byte, opts parser.Options) (*parser.Source, error) {
	p, err := parser.ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(data), filename)
}

// ConvertSource builds the structured document for src and records the
// conversion in stats, which may be nil. A non-empty title overrides the
// reader's title.
func ConvertSource(conv *convert.Converter, stats *Stats, filename, title string, src *parser.Source) (*doctree.Document, error) {
	start := time.Now()
	root, err := conv.ConvertElement(src.Root)
	if stats != nil {
		stats.Record(time.Since(start), err != nil)
	}
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = src.Title
	}
	return &doctree.Document{
		Title:  title,
		Source: filename,
		Meta:   src.Meta,
		Root:   root,
	}, nil
}

// CountSections returns the number of section nodes in the tree.
func CountSections(root *doctree.Node) int {
	n := 0
	doctree.Walk(root, func(node *doctree.Node) bool {
		if node.IsSection() {
			n++
		}
		return true
	})
	return n
}
