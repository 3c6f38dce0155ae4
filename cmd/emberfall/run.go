package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emberfall-rpg/emberfall/internal/config"
	"github.com/emberfall-rpg/emberfall/internal/game/content"
	"github.com/emberfall-rpg/emberfall/internal/game/dice"
	"github.com/emberfall-rpg/emberfall/internal/game/encounter"
	"github.com/emberfall-rpg/emberfall/internal/game/party"
	"github.com/emberfall-rpg/emberfall/internal/observability"
	"github.com/emberfall-rpg/emberfall/internal/scripting"
	"github.com/emberfall-rpg/emberfall/internal/storage/postgres"
)

var (
	runMonsters string
	runPartyID  string
	runHandicap string
	runRolls    []int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve one encounter end to end",
	Long: `Run loads content, assembles an encounter, and drives every turn with
the decision policy until victory, defeat, or escape. With --party the
roster is checked out of PostgreSQL and results are written back;
without it a built-in demo party fights.`,
	RunE: runEncounter,
}

func init() {
	runCmd.Flags().StringVar(&runMonsters, "monsters", "", "comma-separated monster template IDs (required)")
	runCmd.Flags().StringVar(&runPartyID, "party", "", "party ID to check out of the roster store")
	runCmd.Flags().StringVar(&runHandicap, "handicap", "even", "encounter handicap: even, players, or monsters")
	runCmd.Flags().IntSliceVar(&runRolls, "rolls", nil, "scripted die faces for a fully deterministic run")
	_ = runCmd.MarkFlagRequired("monsters")
}

func runEncounter(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := content.Load(cfg.Content.MonstersDir, cfg.Content.SpellsDir, cfg.Content.ItemsDir, cfg.Content.ConditionsDir)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	handicap, err := parseHandicap(runHandicap)
	if err != nil {
		return err
	}

	var src dice.Source
	if len(runRolls) > 0 {
		src = dice.NewSequenceSource(runRolls...)
	} else {
		src = dice.NewCryptoSource()
	}
	roller := dice.NewRoller(src, logger)
	hooks := scripting.NewHookEngine(roller, logger, cfg.Encounter.ScriptInstructionLimit)
	defer hooks.Close()

	pty, writeBack, err := loadParty(ctx, cfg, logger)
	if err != nil {
		return err
	}

	enc, err := encounter.New(db, pty, strings.Split(runMonsters, ","), encounter.Options{
		InitiativeDie:    cfg.Encounter.InitiativeDie,
		DefendACBonus:    cfg.Encounter.DefendACBonus,
		AmbushSpeedBonus: cfg.Encounter.AmbushSpeedBonus,
		FleeSpeedMargin:  cfg.Encounter.FleeSpeedMargin,
		MaxSideSize:      cfg.Encounter.MaxSideSize,
		Handicap:         handicap,
		Source:           src,
		Hooks:            hooks,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	enc.Start()
	for {
		actor, ok := enc.CurrentActor()
		if !ok {
			break
		}
		action, err := enc.AutoAction()
		if err != nil {
			return err
		}
		if _, err := enc.Resolve(actor, action); err != nil {
			return err
		}
	}

	printResult(enc)
	if writeBack != nil {
		if err := writeBack(ctx, pty); err != nil {
			return fmt.Errorf("writing roster back: %w", err)
		}
		logger.Info("roster written back", zap.String("party_id", runPartyID))
	}
	return nil
}

func parseHandicap(s string) (encounter.Handicap, error) {
	switch s {
	case "even":
		return encounter.HandicapEven, nil
	case "players":
		return encounter.HandicapPlayers, nil
	case "monsters":
		return encounter.HandicapMonsters, nil
	}
	return 0, fmt.Errorf("unknown handicap %q: must be even, players, or monsters", s)
}

// loadParty returns the fighting party and, when it came from the roster
// store, a write-back function to persist encounter results.
func loadParty(ctx context.Context, cfg config.Config, logger *zap.Logger) (*party.Party, func(context.Context, *party.Party) error, error) {
	if runPartyID == "" {
		p, err := demoParty()
		return p, nil, err
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to roster store: %w", err)
	}
	repo := postgres.NewRosterRepository(pool.DB())
	p, err := repo.CheckoutParty(ctx, runPartyID)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("party checked out",
		zap.String("party_id", runPartyID),
		zap.Int("active", len(p.Members)),
		zap.Int("reserve", len(p.Reserve)))

	writeBack := func(ctx context.Context, p *party.Party) error {
		defer pool.Close()
		return repo.WriteBack(ctx, runPartyID, p)
	}
	return p, writeBack, nil
}

func demoParty() (*party.Party, error) {
	p := party.New()
	members := []*party.Character{
		{
			ID: "demo-brand", Name: "Brand", Class: party.ClassKnight, Level: 3,
			MaxHP: 34, HP: 34, ArmorClass: 15, Speed: 7, Accuracy: 3, DamageBonus: 2,
			AttacksPerTurn: 1, Attack: content.AttackDef{Name: "longsword", Damage: "1d8+1"},
		},
		{
			ID: "demo-mira", Name: "Mira", Class: party.ClassSorcerer, Level: 3,
			MaxHP: 18, HP: 18, MaxSP: 12, SP: 12, ArmorClass: 11, Speed: 6, Accuracy: 1,
			AttacksPerTurn: 1, Attack: content.AttackDef{Name: "staff", Damage: "1d4"},
		},
		{
			ID: "demo-tess", Name: "Tess", Class: party.ClassRobber, Level: 3,
			MaxHP: 24, HP: 24, ArmorClass: 13, Speed: 9, Accuracy: 4, DamageBonus: 1,
			AttacksPerTurn: 2, Attack: content.AttackDef{Name: "daggers", Damage: "1d4+1"},
		},
	}
	for _, m := range members {
		if _, err := p.AddMember(m); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func printResult(enc *encounter.Encounter) {
	fmt.Fprintf(os.Stdout, "encounter %s: %s after %d rounds, %d actions\n",
		enc.ID(), enc.State(), enc.Round(), len(enc.Transcript()))

	summary := enc.Summary()
	if summary == nil {
		return
	}
	fmt.Fprintf(os.Stdout, "rewards: %d xp, %d gold, %d gems\n",
		summary.Experience, summary.Gold, summary.Gems)
	for _, award := range summary.Members {
		fmt.Fprintf(os.Stdout, "  %s: +%d xp", award.CharacterID, award.Experience)
		if award.Levels > 0 {
			fmt.Fprintf(os.Stdout, " (+%d level)", award.Levels)
		}
		fmt.Fprintln(os.Stdout)
	}
	for _, drop := range summary.Drops {
		if drop.LeftBehind {
			fmt.Fprintf(os.Stdout, "  %s left behind (no room)\n", drop.ItemID)
		} else {
			fmt.Fprintf(os.Stdout, "  %s -> %s\n", drop.ItemID, drop.CharacterID)
		}
	}
}
