package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Add documents to the knowledge base",
	Long:  `Chunks the given text or markdown files, embeds the chunks and stores them in the local knowledge base used for retrieval.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		a := NewApp(ctx)
		defer a.Close(ctx)

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			sourceID := filepath.Base(path)
			n, err := a.ingestor.IngestDocument(ctx, sourceID, string(data))
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d chunks\n", sourceID, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
