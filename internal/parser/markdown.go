package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/dgallion1/mdstruct/internal/markup"
)

// MarkdownParser handles Markdown files using goldmark. A leading front
// matter block is stripped and its fields become the source metadata.
type MarkdownParser struct {
	md *markup.Parser
}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{md: markup.NewParser()}
}

type frontMatter struct {
	Title  string         `yaml:"title" toml:"title" json:"title"`
	Custom map[string]any `yaml:",inline"`
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(src), &fm)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = stem(filename)
	}

	meta := make(map[string]any, len(fm.Custom)+1)
	for k, v := range fm.Custom {
		meta[k] = plainValue(v)
	}
	if fm.Title != "" {
		meta["title"] = fm.Title
	}

	return &Source{
		Title: title,
		Meta:  meta,
		Root:  p.md.Parse(body),
	}, nil
}

// plainValue rewrites the map[any]any values YAML decoding can produce so
// metadata stays JSON-encodable.
func plainValue(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = plainValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = plainValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plainValue(item)
		}
		return out
	}
	return v
}
