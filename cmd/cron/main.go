package main

import (
	"os"
	"os/signal"
	"syscall"

	"ecoverse/internal/container"
	"ecoverse/internal/pkg/logging"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
)

const (
	DEFAULT_CRON_LEADERBOARD = "@every 5m"
	DEFAULT_CRON_BADGES      = "@every 1h"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

type CronJob interface {
	Start(cronRunner *cron.Cron) error
}

func main() {
	injector := container.New(map[string]string{})
	log := logging.Component("cron")

	app := &cli.App{
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(injector),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("cron exited")
	}
}

func commandCronjob(injector *do.Injector) *cli.Command {
	return &cli.Command{
		Name: "cron",
		Action: func(c *cli.Context) error {
			log := logging.Component("cron")
			vs := do.MustInvokeNamed[map[string]string](injector, "envs")

			jobs := []CronJob{
				NewLeaderboardJob(injector, specOrDefault(vs["CRON_LEADERBOARD"], DEFAULT_CRON_LEADERBOARD)),
				NewBadgeJob(injector, specOrDefault(vs["CRON_BADGES"], DEFAULT_CRON_BADGES)),
			}

			cronRunner := cron.New()
			for _, job := range jobs {
				if err := job.Start(cronRunner); err != nil {
					return err
				}
			}

			log.Info().Int("jobs", len(jobs)).Msg("start cronjob")
			cronRunner.Start()

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			<-cronRunner.Stop().Done()
			log.Info().Msg("cronjob stopped")
			return injector.Shutdown()
		},
	}
}

func specOrDefault(spec, def string) string {
	if spec == "" {
		return def
	}
	return spec
}
