package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fbettag/llmdb/internal/history"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history [BUILD_ID]",
		Short: "Show recorded catalog builds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				b, err := history.Get(args[0])
				if err != nil {
					return err
				}
				return printJSON(out, b)
			}
			builds, err := history.List(limit)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, builds)
			}
			if len(builds) == 0 {
				fmt.Fprintln(out, "no builds recorded")
				return nil
			}
			rows := make([][]string, 0, len(builds))
			for _, b := range builds {
				rows = append(rows, []string{
					b.ID,
					strconv.FormatUint(b.Epoch, 10),
					b.RecordedAt.Local().Format(time.DateTime),
					strconv.Itoa(b.Providers),
					strconv.Itoa(b.Models),
					dropped(b.Dropped),
				})
			}
			printTable(out, []string{"ID", "EPOCH", "RECORDED", "PROVIDERS", "MODELS", "DROPPED"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Show at most this many builds (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func dropped(counts map[string]int) string {
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
