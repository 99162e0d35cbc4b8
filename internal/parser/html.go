package parser

import (
	"fmt"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dgallion1/mdstruct/internal/convert"
	"github.com/dgallion1/mdstruct/internal/markup"
)

// lineBreakMark stands in for <br> while the content passes through
// html-to-markdown, which collapses literal newlines to spaces.
const lineBreakMark = "mdstructlinebreak7f3a"

// unsupportedSelectors would be flattened into plain paragraphs by the
// Markdown step, so they are rejected instead.
var unsupportedSelectors = []string{"table"}

// noiseSelectors are removed before conversion. They carry no document
// content or map to constructs the converter does not accept.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer", "header",
	"img", "picture", "figure", "figcaption",
	"iframe", "video", "audio", "svg", "canvas",
	"form", "button", "input", "select", "textarea",
	"hr",
}

// HTMLParser handles HTML files. The main content is reduced to Markdown
// and then read like any Markdown document.
type HTMLParser struct {
	md *markup.Parser
}

func NewHTMLParser() *HTMLParser {
	return &HTMLParser{md: markup.NewParser()}
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Source, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := stem(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}

	markdown, err := contentMarkdown(doc)
	if err != nil {
		return nil, err
	}

	return &Source{
		Title: title,
		Meta:  map[string]any{},
		Root:  p.md.ParseString(markdown),
	}, nil
}

// contentMarkdown picks the best content container, strips noise and
// converts what is left to Markdown.
func contentMarkdown(doc *html.Node) (string, error) {
	gq := goquery.NewDocumentFromNode(doc)
	for _, sel := range noiseSelectors {
		gq.Find(sel).Remove()
	}

	var content *goquery.Selection
	for _, tag := range []string{"main", "article", "body"} {
		sel := gq.Find(tag)
		if sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		return "", nil
	}

	// Keep link text, drop the link itself.
	content.Find("a").Contents().Unwrap()
	content.Find("a").Remove()
	content.Find("h1, h2, h3, h4, h5, h6").Find("br").ReplaceWithHtml(" ")
	content.Find("br").ReplaceWithHtml(lineBreakMark)

	for _, tag := range unsupportedSelectors {
		if content.Find(tag).Length() > 0 {
			return "", fmt.Errorf("html content: %w", &convert.UnsupportedTagError{Tag: tag})
		}
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("serialize html content: %w", err)
	}
	markdown, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}
	return strings.ReplaceAll(markdown, lineBreakMark, "\n"), nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
