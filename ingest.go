package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"persona-chat/internal/document"
)

var (
	resetIndex bool
	watchPaths bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Add files or directories to the knowledge base",
	Long: `Chunks, embeds and stores every supported text file under the given paths.
Ingesting a file again replaces its previous chunks. With --watch the command
keeps running and re-ingests files as they change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if resetIndex {
			if err := a.store.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared knowledge base")
		}

		chunker := document.NewChunker(a.cfg.Ingest.ChunkSize, a.cfg.Ingest.ChunkOverlap)
		ingester := document.NewIngester(a.embedder, a.store, chunker, a.cfg.Embedding.BatchSize)

		result, err := ingester.IngestPaths(ctx, args, func(file string, chunks int) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d chunks\n", file, chunks)
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d files into %d chunks (%d replaced) in %s\n",
			result.Files, result.Chunks, result.Replaced, result.ProcessingTime.Round(time.Millisecond))

		if !watchPaths {
			return nil
		}
		return watch(cmd, ingester, args)
	},
}

func watch(cmd *cobra.Command, ingester *document.Ingester, paths []string) error {
	w, err := document.NewWatcher(ingester, document.DefaultDebounce)
	if err != nil {
		return err
	}
	defer w.Close()

	for _, path := range paths {
		if err := w.Add(path); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Watching for changes, press Ctrl+C to stop")

	return w.Run(cmd.Context(), func(e document.ChangeEvent) {
		switch {
		case e.Err != nil:
			fmt.Fprintf(out, "  %s: %v\n", e.Path, e.Err)
		case e.Removed:
			fmt.Fprintf(out, "  %s: removed (%d chunks)\n", e.Path, e.Chunks)
		default:
			fmt.Fprintf(out, "  %s: %d chunks\n", e.Path, e.Chunks)
		}
	})
}

func init() {
	ingestCmd.Flags().BoolVar(&resetIndex, "reset", false, "clear the knowledge base before ingesting")
	ingestCmd.Flags().BoolVarP(&watchPaths, "watch", "w", false, "keep running and re-ingest files when they change")
	rootCmd.AddCommand(ingestCmd)
}
