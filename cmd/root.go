package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/levelup/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "levelup [route]",
	Short: "Personalized learning in the terminal",
	Long: "LevelUp assesses your level with a short IQ test, then guides you through a learning hub, " +
		"a roadmap and coding practice with points, streaks and a leaderboard.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := ""
		if len(args) == 1 {
			start = args[0]
		}
		return runApp(cmd, start)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("env-file", config.DefaultEnvFile, "Path to a dotenv file (ignored when missing)")
	flags.String("local", "", "Use an embedded SQLite backend at this path (overrides LEVELUP_LOCAL_DB)")
	flags.Lookup("local").NoOptDefVal = config.DefaultLocalDBPath()
	flags.String("redirect", "", "Redirect URL or fragment returned by the identity provider")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}
