package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberfall-rpg/emberfall/internal/config"
	"github.com/emberfall-rpg/emberfall/internal/game/content"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and content definitions",
	Long: `Validate loads the configuration and every content template, checking
field constraints, dice expressions, and cross-references without
starting an encounter. Exit status is non-zero on the first problem.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		db, err := content.Load(cfg.Content.MonstersDir, cfg.Content.SpellsDir, cfg.Content.ItemsDir, cfg.Content.ConditionsDir)
		if err != nil {
			return fmt.Errorf("loading content: %w", err)
		}
		fmt.Fprintf(os.Stdout, "content ok: %d monsters, %d spells, %d items, %d conditions\n",
			len(db.Monsters), len(db.Spells), len(db.Items), len(db.Conditions))
		return nil
	},
}
