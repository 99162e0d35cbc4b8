package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/dgallion1/mdstruct/internal/convert"
	"github.com/dgallion1/mdstruct/internal/doctree"
	"github.com/dgallion1/mdstruct/internal/parser"
	"github.com/dgallion1/mdstruct/internal/pipeline"
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE...",
	Short: "Convert files to structured section trees",
	Long: `Convert reads each file with the reader for its extension and prints the
resulting document tree. Headings nest the content that follows them unless
--flat is given. A single file prints one document; several files print a
list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		flat, _ := cmd.Flags().GetBool("flat")

		conv := convert.New()
		if flat {
			conv = convert.NewFlat()
		}

		docs := make([]*doctree.Document, 0, len(args))
		for _, path := range args {
			doc, err := convertFile(conv, path)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}

		if len(docs) == 1 {
			return writeOutput(cmd.OutOrStdout(), format, docs[0])
		}
		return writeOutput(cmd.OutOrStdout(), format, docs)
	},
}

func init() {
	convertCmd.Flags().StringP("format", "f", "json", "output format: json or yaml")
	convertCmd.Flags().Bool("flat", false, "keep sections flat instead of nesting them by level")

	rootCmd.AddCommand(convertCmd)
}

// convertFile reads and converts one file from disk.
func convertFile(conv *convert.Converter, path string) (*doctree.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	opts := parser.Options{PDFFallbackPdftotext: viper.GetBool("pdf.fallback_pdftotext")}
	src, err := pipeline.Read(path, data, opts)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	doc, err := pipeline.ConvertSource(conv, nil, path, "", src)
	if err != nil {
		var tagErr *convert.UnsupportedTagError
		if errors.As(err, &tagErr) {
			log.Warn("unsupported element", "file", path, "tag", tagErr.Tag)
		}
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	log.Debug("converted", "file", path, "sections", pipeline.CountSections(doc.Root))
	return doc, nil
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}
