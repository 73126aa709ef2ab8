package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/levelup/internal/backend/local"
	"github.com/abhisek/levelup/internal/catalog"
	"github.com/abhisek/levelup/internal/config"
	"github.com/abhisek/levelup/internal/logging"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a learning catalog into the local backend",
	Long: "Upserts learning modules, roadmap steps and practice problems into the embedded " +
		"SQLite backend. Without --file the built-in catalog is loaded.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.LocalDB == "" {
			cfg.LocalDB = config.DefaultLocalDBPath()
		}

		file, _ := cmd.Flags().GetString("file")
		c, err := loadCatalog(file)
		if err != nil {
			return err
		}

		log, logFile, err := logging.New(logging.Options{Path: cfg.LogFile, Level: cfg.LogLevel, Format: cfg.LogFormat})
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer logFile.Close()

		b, err := local.Open(cmd.Context(), local.Options{Path: cfg.LocalDB, Catalog: c, Logger: log})
		if err != nil {
			return fmt.Errorf("open local backend: %w", err)
		}
		defer b.Close()

		if err := b.Seed(cmd.Context(), c); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %d modules, %d roadmap steps, %d problems\n",
			cfg.LocalDB, len(c.Modules), len(c.Steps), len(c.Problems))
		return nil
	},
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	c, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return c, nil
}

func init() {
	seedCmd.Flags().String("file", "", "YAML catalog to load instead of the built-in one")
}
