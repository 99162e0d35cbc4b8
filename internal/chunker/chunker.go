package chunker

import (
	"strings"

	"github.com/dgallion1/mdstruct/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

// ChunkTree walks a structured document tree and produces section-aware
// chunks. Each section contributes the text of its own blocks; nested
// sections are chunked separately with the parent titles as breadcrumb.
// A zero ChunkOverlap disables overlap. An overlap that is not smaller
// than ChunkSize is cut to a quarter of it.
func ChunkTree(root *doctree.Node, cfg Config) []doctree.Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1500
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 4
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 100
	}
	if root == nil {
		return nil
	}

	var chunks []doctree.Chunk
	walkNode(root, nil, "", cfg, &chunks)
	return chunks
}

// walkNode chunks the body of node, then recurses into its subsections.
func walkNode(node *doctree.Node, breadcrumb []string, sectionID string, cfg Config, chunks *[]doctree.Chunk) {
	var blocks []string
	var subsections []*doctree.Node
	collect(node, &blocks, &subsections)

	text := strings.Join(blocks, "\n\n")
	if text != "" {
		parts := []string{text}
		if EstimateTokens(text) > cfg.ChunkSize {
			parts = splitText(text, cfg.ChunkSize, cfg.ChunkOverlap)
		}
		for _, part := range parts {
			if EstimateTokens(part) < cfg.MinChunk {
				continue
			}
			*chunks = append(*chunks, doctree.Chunk{
				Text:       part,
				Index:      len(*chunks),
				Breadcrumb: copyBreadcrumb(breadcrumb),
				SectionID:  sectionID,
			})
		}
	}

	for _, sub := range subsections {
		bc := append(copyBreadcrumb(breadcrumb), strings.TrimSpace(doctree.PlainText(sub.Title())))
		walkNode(sub, bc, sub.ID, cfg, chunks)
	}
}

// collect gathers the block texts directly owned by node. Nested
// containers are flattened; sections are returned for separate chunking.
func collect(node *doctree.Node, blocks *[]string, subsections *[]*doctree.Node) {
	for _, child := range node.Children {
		switch {
		case child.IsSection():
			*subsections = append(*subsections, child)
		case child.Kind == doctree.KindTitle:
		case child.Kind == doctree.KindContainer:
			collect(child, blocks, subsections)
		default:
			if t := strings.TrimSpace(blockText(child)); t != "" {
				*blocks = append(*blocks, t)
			}
		}
	}
}

// blockText renders one block as plain text. List items go one per line.
func blockText(n *doctree.Node) string {
	switch n.Kind {
	case doctree.KindBulletList, doctree.KindEnumeratedList:
		var lines []string
		for _, item := range n.Children {
			if t := strings.TrimSpace(blockText(item)); t != "" {
				lines = append(lines, t)
			}
		}
		return strings.Join(lines, "\n")
	case doctree.KindListItem:
		var sb strings.Builder
		for _, c := range n.Children {
			if !isInline(c.Kind) && sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(blockText(c))
		}
		return sb.String()
	}
	return doctree.PlainText(n)
}

func isInline(k doctree.Kind) bool {
	switch k {
	case doctree.KindText, doctree.KindEmphasis, doctree.KindStrong, doctree.KindLiteral:
		return true
	}
	return false
}

// splitText breaks text into chunks of approximately targetTokens, with overlap.
func splitText(text string, targetTokens, overlapTokens int) []string {
	// Split by paragraphs first.
	paragraphs := splitByParagraphs(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para)

		// If a single paragraph exceeds the target, split it further.
		if paraTokens > targetTokens {
			// Flush current buffer.
			if currentTokens > 0 {
				result = append(result, current.String())
				current.Reset()
				currentTokens = 0
			}
			// Split the large paragraph by sentences.
			subParts := splitBySentences(para, targetTokens, overlapTokens)
			result = append(result, subParts...)
			continue
		}

		// Would adding this paragraph exceed the target?
		if currentTokens+paraTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())

			// Start next chunk with overlap from end of current.
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks a large paragraph into sentence-based chunks.
func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	sentences := splitSentences(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range sentences {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}

// getOverlapText extracts the last N tokens worth of text for overlap.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	// Approximate: 1.33 tokens per word.
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
