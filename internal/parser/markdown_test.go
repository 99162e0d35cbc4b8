package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/mdstruct/internal/markup"
)

func tags(els []*markup.Element) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = el.Tag
	}
	return out
}

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.
`
	p := NewMarkdownParser()
	src, err := p.Parse(strings.NewReader(input), "doc.md")
	require.NoError(t, err)

	assert.Equal(t, "doc", src.Title)
	assert.Equal(t, "div", src.Root.Tag)
	assert.Equal(t, []string{"h1", "p", "h2", "p", "h3", "p"}, tags(src.Root.Children))
	assert.Equal(t, "Title", src.Root.Children[0].Text)
	assert.Equal(t, "Subsection A1 content.", src.Root.Children[5].Text)
}

func TestMarkdownParser_FrontMatter(t *testing.T) {
	input := "---\ntitle: Release Notes\ntags:\n  - go\n  - docs\nextra:\n  owner: team\n---\n\n# Changes\n\nFixed things.\n"

	p := NewMarkdownParser()
	src, err := p.Parse(strings.NewReader(input), "notes.md")
	require.NoError(t, err)

	assert.Equal(t, "Release Notes", src.Title)
	assert.Equal(t, "Release Notes", src.Meta["title"])
	assert.Equal(t, []any{"go", "docs"}, src.Meta["tags"])
	assert.Equal(t, map[string]any{"owner": "team"}, src.Meta["extra"])
	assert.Equal(t, []string{"h1", "p"}, tags(src.Root.Children))
}

func TestMarkdownParser_NoFrontMatter(t *testing.T) {
	p := NewMarkdownParser()
	src, err := p.Parse(strings.NewReader("Just text."), "plain.md")
	require.NoError(t, err)

	assert.Equal(t, "plain", src.Title)
	assert.Empty(t, src.Meta)
	require.Len(t, src.Root.Children, 1)
	assert.Equal(t, "Just text.", src.Root.Children[0].Text)
}

func TestMarkdownParser_CodeBlock(t *testing.T) {
	input := "## Endpoints\n\n```\nGET /api/users\nPOST /api/users\n```\n"

	p := NewMarkdownParser()
	src, err := p.Parse(strings.NewReader(input), "api.md")
	require.NoError(t, err)

	require.Equal(t, []string{"h2", "pre"}, tags(src.Root.Children))
	pre := src.Root.Children[1]
	require.Len(t, pre.Children, 1)
	assert.Equal(t, "GET /api/users\nPOST /api/users\n", pre.Children[0].Text)
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := NewMarkdownParser()
	src, err := p.Parse(strings.NewReader(""), "empty.md")
	require.NoError(t, err)
	assert.Empty(t, src.Root.Children)
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"docs/guide.md", "guide"},
	}
	p := NewMarkdownParser()
	for _, tt := range tests {
		src, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if src.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, src.Title)
		}
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"a.md", false},
		{"a.MARKDOWN", false},
		{"a.txt", false},
		{"a.csv", false},
		{"a.htm", false},
		{"a.pdf", false},
		{"a.docx", false},
		{"a.exe", true},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename, Options{})
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.filename)
			}
			if IsSupportedExtension(tt.filename) {
				t.Errorf("%s: should not be supported", tt.filename)
			}
			continue
		}
		if err != nil || p == nil {
			t.Errorf("%s: unexpected error %v", tt.filename, err)
		}
		if !IsSupportedExtension(tt.filename) {
			t.Errorf("%s: should be supported", tt.filename)
		}
	}
}
