// Command migrate applies the roster store schema from ./migrations, in
// either direction, against the database named in the config file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/viper"

	"github.com/emberfall-rpg/emberfall/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	if err := run(*configPath, *direction, *steps); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, direction string, steps int) error {
	start := time.Now()

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	var dbCfg config.DatabaseConfig
	if err := v.Sub("database").Unmarshal(&dbCfg); err != nil {
		return fmt.Errorf("parsing database config: %w", err)
	}

	m, err := migrate.New("file://migrations", dbCfg.DSN())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrating roster schema %s: %w", direction, err)
	}

	version, dirty, _ := m.Version()
	if err == migrate.ErrNoChange {
		fmt.Fprintf(os.Stdout, "roster schema unchanged (version=%d dirty=%v) [%s]\n", version, dirty, time.Since(start))
	} else {
		fmt.Fprintf(os.Stdout, "roster schema migrated %s to version=%d dirty=%v [%s]\n", direction, version, dirty, time.Since(start))
	}
	return nil
}
