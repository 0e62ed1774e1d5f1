package main

import (
	"context"

	"ecoverse/internal/pkg/logging"
	"ecoverse/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/samber/do"
)

type LeaderboardJob struct {
	container *do.Injector
	spec      string
	log       zerolog.Logger
}

func NewLeaderboardJob(container *do.Injector, spec string) *LeaderboardJob {
	return &LeaderboardJob{
		container: container,
		spec:      spec,
		log:       logging.Component("cron.leaderboard"),
	}
}

func (j *LeaderboardJob) Start(cronRunner *cron.Cron) error {
	if _, err := cronRunner.AddFunc(j.spec, j.runScheduledTask); err != nil {
		return err
	}
	j.log.Info().Str("cron", j.spec).Msg("leaderboard cronjob scheduled")

	// load the board once so reads do not wait for the first tick
	j.runScheduledTask()
	return nil
}

func (j *LeaderboardJob) runScheduledTask() {
	serviceLeaderboard, err := do.Invoke[*services.ServiceLeaderboard](j.container)
	if err != nil {
		j.log.Error().Err(err).Msg("resolve leaderboard service")
		return
	}

	synced, err := serviceLeaderboard.Sync(context.Background())
	if err != nil {
		j.log.Error().Err(err).Msg("sync leaderboard")
		return
	}
	j.log.Info().Int("users", synced).Msg("leaderboard synced")
}

type BadgeJob struct {
	container *do.Injector
	spec      string
	log       zerolog.Logger
}

func NewBadgeJob(container *do.Injector, spec string) *BadgeJob {
	return &BadgeJob{
		container: container,
		spec:      spec,
		log:       logging.Component("cron.badges"),
	}
}

func (j *BadgeJob) Start(cronRunner *cron.Cron) error {
	if _, err := cronRunner.AddFunc(j.spec, j.runScheduledTask); err != nil {
		return err
	}
	j.log.Info().Str("cron", j.spec).Msg("badge cronjob scheduled")
	return nil
}

func (j *BadgeJob) runScheduledTask() {
	serviceBadge, err := do.Invoke[*services.ServiceBadge](j.container)
	if err != nil {
		j.log.Error().Err(err).Msg("resolve badge service")
		return
	}

	updated, err := serviceBadge.RebuildAll(context.Background())
	if err != nil {
		j.log.Error().Err(err).Msg("rebuild badges")
		return
	}
	j.log.Info().Int("users", updated).Msg("badges rebuilt")
}
