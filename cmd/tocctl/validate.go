package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/commonprayer-backend/internal/adapter/corpus"
	"github.com/heartmarshall/commonprayer-backend/internal/toc"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate the corpus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := loadIndex(cmd)
		if err != nil {
			return err
		}

		counts := make(map[string]int)
		for _, e := range idx.Entries() {
			counts[e.Category]++
		}
		out := cmd.OutOrStdout()
		for _, category := range idx.Categories() {
			fmt.Fprintf(out, "%-24s %-32q %d\n", category, idx.CategoryLabel(category), counts[category])
		}
		fmt.Fprintf(out, "ok: %d pages in %d categories\n", idx.Len(), len(idx.Categories()))
		return nil
	},
}

// loadIndex reads --dir through a Store so that the same validation as the
// server applies.
func loadIndex(cmd *cobra.Command) (*toc.Index, error) {
	logger := newLogger()
	store := toc.NewStore(logger, corpus.NewLoader(logger, corpusDir))
	return store.Reload(cmd.Context())
}
