package parser

import (
	"bytes"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T) []byte {
	t.Helper()
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().Style("Heading1").AddText("Overview")
	para := doc.AddParagraph()
	para.AddText("Plain start ")
	para.AddText("bold part").Bold()
	para.AddText(" and ")
	para.AddText("italic part").Italic()
	doc.AddParagraph()
	doc.AddParagraph().Style("Heading2").AddText("Details")
	doc.AddParagraph().AddText("More text.")

	var buf bytes.Buffer
	_, err := doc.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDOCXParser_Structure(t *testing.T) {
	p := &DOCXParser{}
	src, err := p.Parse(bytes.NewReader(buildDocx(t)), "report.docx")
	require.NoError(t, err)

	assert.Equal(t, "report", src.Title)
	require.Equal(t, []string{"h1", "p", "h2", "p"}, tags(src.Root.Children))
	assert.Equal(t, "Overview", src.Root.Children[0].Text)
	assert.Equal(t, "Details", src.Root.Children[2].Text)

	para := src.Root.Children[1]
	assert.Equal(t, "Plain start ", para.Text)
	require.Equal(t, []string{"strong", "em"}, tags(para.Children))
	assert.Equal(t, "bold part", para.Children[0].Text)
	assert.Equal(t, " and ", para.Children[0].Tail)
	assert.Equal(t, "italic part", para.Children[1].Text)
}

func TestDocxHeadingLevel(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{"Heading1", 1},
		{"heading 3", 3},
		{"Heading6", 6},
		{"Heading7", 0},
		{"Normal", 0},
	}
	for _, tt := range tests {
		para := &docx.Paragraph{Properties: &docx.ParagraphProperties{Style: &docx.Style{Val: tt.style}}}
		if got := docxHeadingLevel(para); got != tt.want {
			t.Errorf("style %q: expected %d, got %d", tt.style, tt.want, got)
		}
	}
	if got := docxHeadingLevel(&docx.Paragraph{}); got != 0 {
		t.Errorf("expected 0 for unstyled paragraph, got %d", got)
	}
}

func TestDOCXParser_InvalidInput(t *testing.T) {
	p := &DOCXParser{}
	_, err := p.Parse(bytes.NewReader([]byte("not a zip")), "bad.docx")
	assert.Error(t, err)
}
