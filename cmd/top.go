package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/karmabot/internal/adapters/render/leaderboard"
	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/ports"
)

type leaderboardEntry struct {
	Rank      int       `json:"rank"`
	Subject   string    `json:"subject"`
	Score     int64     `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newTopCmd(v *viper.Viper) *cobra.Command {
	var (
		bottom bool
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the karma leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			order := domain.RankingTop
			if bottom {
				order = domain.RankingBottom
			}
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", limit)
			}

			return withApp(v, cmd, nil, func(app *app) error {
				records, err := app.karmaService(ports.NopTelemetry{}).Ranking(cmd.Context(), order, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeLeaderboardJSON(cmd, records)
				}

				rendered, err := app.leaderboardRenderer(records, leaderboard.RenderOptions{Order: order, Now: app.now()})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&bottom, "bottom", false, "Show the lowest scores instead of the highest")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of subjects to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")
	return cmd
}

func writeLeaderboardJSON(cmd *cobra.Command, records []domain.KarmaRecord) error {
	entries := make([]leaderboardEntry, 0, len(records))
	for i, record := range records {
		entries = append(entries, leaderboardEntry{
			Rank:      i + 1,
			Subject:   string(record.Subject),
			Score:     record.Score,
			UpdatedAt: record.UpdatedAt,
		})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}
