package cmd

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/levelup/internal/leaderboard"
	"github.com/abhisek/levelup/internal/ui/theme"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print the rankings",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		rows, err := e.store.Profiles.Leaderboard(cmd.Context())
		if err != nil {
			return fmt.Errorf("load leaderboard: %w", err)
		}
		// The saved session, if any, marks the viewer's row.
		current := ""
		if sess, err := e.client.Auth.GetSession(cmd.Context()); err == nil && sess != nil {
			current = sess.User.ID
		}
		entries := leaderboard.Top(leaderboard.Rank(rows, current), limit)
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No learners yet.")
			return nil
		}

		_, err = lipgloss.Fprintln(cmd.OutOrStdout(), renderLeaderboard(entries))
		return err
	},
}

func renderLeaderboard(entries []leaderboard.Entry) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers("#", "Name", "Level", "Points", "Solved")
	for _, en := range entries {
		name := en.Name
		if en.Current {
			name += " (you)"
		}
		t.Row(strconv.Itoa(en.Rank), name, string(en.Level), strconv.Itoa(en.Points), strconv.Itoa(en.Solved))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		s := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return s.Foreground(theme.Primary).Bold(true)
		}
		if row >= 0 && row < len(entries) && entries[row].Current {
			return s.Foreground(theme.Accent).Bold(true)
		}
		return s
	})
	return t.String()
}

func init() {
	leaderboardCmd.Flags().Int("limit", 10, "Number of rows to print (0 prints all)")
}
