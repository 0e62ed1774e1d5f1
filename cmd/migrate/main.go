package main

import (
	"context"
	"fmt"
	"os"

	"ecoverse/internal/container"
	"ecoverse/internal/datastore"
	"ecoverse/internal/pkg/logging"
	"ecoverse/internal/services"

	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	injector := container.New(map[string]string{})
	log := logging.Component("migrate")

	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(injector),
			commandSeedRewards(injector),
			commandImportLegacy(injector),
			commandRebuildBadges(injector),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
}

func commandMigration(injector *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create the postgres document table",
		Action: func(c *cli.Context) error {
			db, err := do.Invoke[*bun.DB](injector)
			if err != nil {
				return err
			}

			if err := datastore.CreateTableDocument(c.Context, db); err != nil {
				return err
			}

			fmt.Println("Migration success")
			return nil
		},
	}
}

func commandSeedRewards(injector *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "seed-rewards",
		Usage: "write the default reward catalog when none exists",
		Action: func(c *cli.Context) error {
			serviceCatalog, err := do.Invoke[*services.ServiceCatalog](injector)
			if err != nil {
				return err
			}

			written, err := serviceCatalog.Seed(c.Context)
			if err != nil {
				return err
			}

			fmt.Println("Seeded rewards:", written)
			return nil
		},
	}
}

func commandImportLegacy(injector *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "import-legacy",
		Usage: "convert legacy json collections into the configured store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Usage:    "directory holding the legacy json files",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			log := logging.Component("migrate")
			data, err := services.ConvertLegacy(c.String("dir"))
			if err != nil {
				return err
			}

			store, err := do.Invoke[datastore.Store](injector)
			if err != nil {
				return err
			}

			if err := store.Put(c.Context, data.Documents()...); err != nil {
				return err
			}

			log.Info().
				Int("users", len(data.Users)).
				Int("transactions", len(data.Transactions)).
				Int("carbon_records", len(data.CarbonRecords)).
				Int("rewards", len(data.Rewards)).
				Msg("legacy data imported")

			serviceCatalog, err := do.Invoke[*services.ServiceCatalog](injector)
			if err != nil {
				return err
			}
			serviceCatalog.Invalidate(c.Context)

			return rebuildBadges(c.Context, injector)
		},
	}
}

func commandRebuildBadges(injector *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "rebuild-badges",
		Usage: "recompute earned badges for every user",
		Action: func(c *cli.Context) error {
			return rebuildBadges(c.Context, injector)
		},
	}
}

func rebuildBadges(ctx context.Context, injector *do.Injector) error {
	serviceBadge, err := do.Invoke[*services.ServiceBadge](injector)
	if err != nil {
		return err
	}

	updated, err := serviceBadge.RebuildAll(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Badges updated:", updated)
	return nil
}
