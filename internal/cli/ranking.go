package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"veggie-trivia-service/internal/app"
	"veggie-trivia-service/internal/config"
)

// NewRankingCmd prints one leaderboard page from the configured backend.
func NewRankingCmd(configPath *string) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Print a page of the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackends(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			store, err := b.leaderboard()
			if err != nil {
				return err
			}
			result, err := app.NewRankingView(store, cfg.Leaderboard.PageSize).Page(cmd.Context(), page)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tNAME\tSCORE\tLEVEL\tTIME")
			for _, e := range result.Entries {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", e.Rank, e.PlayerName, e.Score, e.LevelReached, e.Timestamp)
			}
			fmt.Fprintf(w, "page %d/%d (%d entries)\n", result.Page, result.TotalPages, result.Total)
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}
