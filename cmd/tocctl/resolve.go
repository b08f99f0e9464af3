package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/service/page"
)

var (
	resolveSlug    string
	resolveVersion string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <category>",
	Short: "Show which page a category, slug and version select",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var slug *string
		if resolveSlug != "" {
			slug = &resolveSlug
		}
		var version *domain.Version
		if resolveVersion != "" {
			v, err := domain.ParseVersion(resolveVersion)
			if err != nil {
				return err
			}
			version = &v
		}

		idx, err := loadIndex(cmd)
		if err != nil {
			return err
		}

		res := page.Resolve(idx, args[0], slug, version)
		if res == nil {
			return errors.New("no page matches")
		}

		out := cmd.OutOrStdout()
		if res.IsSummary() {
			fmt.Fprintf(out, "ambiguous: %d candidates\n", len(res.Summary))
			for _, group := range page.GroupSummary(res.Summary) {
				if group.SourceName != "" {
					fmt.Fprintf(out, "%s\n", group.SourceName)
				}
				for _, e := range group.Entries {
					fmt.Fprintf(out, "  %-40s %s\n", e.Path(args[0]), e.Label)
				}
			}
			return nil
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Page)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveSlug, "slug", "", "page slug")
	resolveCmd.Flags().StringVar(&resolveVersion, "version", "", "version, e.g. RiteII")
}
