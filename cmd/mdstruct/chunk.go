package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/mdstruct/internal/chunker"
	"github.com/dgallion1/mdstruct/internal/convert"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk FILE",
	Short: "Split a file into section-aware chunks",
	Long: `Chunk converts a file into its section tree and splits each section's
text into chunks of roughly --size tokens with --overlap tokens carried
between neighbours. Every chunk records the titles of the sections it
belongs to.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		doc, err := convertFile(convert.New(), args[0])
		if err != nil {
			return err
		}

		cfg := chunker.Config{
			ChunkSize:    viper.GetInt("chunk.size"),
			ChunkOverlap: viper.GetInt("chunk.overlap"),
			MinChunk:     viper.GetInt("chunk.min"),
		}
		chunks := chunker.ChunkTree(doc.Root, cfg)
		log.Debug("chunked", "file", args[0], "chunks", len(chunks))
		return writeOutput(cmd.OutOrStdout(), format, chunks)
	},
}

func init() {
	defaults := chunker.DefaultConfig()
	chunkCmd.Flags().StringP("format", "f", "json", "output format: json or yaml")
	chunkCmd.Flags().Int("size", defaults.ChunkSize, "target chunk size in tokens")
	chunkCmd.Flags().Int("overlap", defaults.ChunkOverlap, "overlap between consecutive chunks in tokens")
	chunkCmd.Flags().Int("min", 10, "drop chunks shorter than this many tokens")
	viper.BindPFlag("chunk.size", chunkCmd.Flags().Lookup("size"))
	viper.BindPFlag("chunk.overlap", chunkCmd.Flags().Lookup("overlap"))
	viper.BindPFlag("chunk.min", chunkCmd.Flags().Lookup("min"))

	rootCmd.AddCommand(chunkCmd)
}
