package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/mdstruct/internal/markup"
)

// CSVParser handles CSV files. Rows are grouped under one heading per
// batch, each row a list item of "header: value" pairs.
type CSVParser struct{}

const csvBatchSize = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (*Source, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	src := &Source{
		Title: stem(filename),
		Meta:  map[string]any{},
		Root:  markup.New("div", ""),
	}
	if len(records) == 0 {
		return src, nil
	}

	// First row is headers.
	headers := records[0]
	src.Meta["columns"] = headers
	src.Root.SubElement("p").Text = "Columns: " + strings.Join(headers, ", ")

	dataRows := records[1:]
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		// 1-indexed, skip header
		src.Root.SubElement("h2").Text = fmt.Sprintf("Rows %d-%d", i+2, end+1)
		list := src.Root.SubElement("ul")
		for _, row := range dataRows[i:end] {
			list.SubElement("li").Text = rowText(headers, row)
		}
	}

	return src, nil
}

func rowText(headers, row []string) string {
	var text strings.Builder
	for j, cell := range row {
		if j < len(headers) {
			text.WriteString(headers[j] + ": " + cell)
		} else {
			text.WriteString(cell)
		}
		if j < len(row)-1 {
			text.WriteString(", ")
		}
	}
	return text.String()
}
