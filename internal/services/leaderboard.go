package services

import (
	"context"
	"errors"

	"ecoverse/internal/datastore/redis_store"
	"ecoverse/internal/models"
	"ecoverse/internal/pkg/caching"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

// ServiceLeaderboard ranks users by points. The board is served from the
// redis sorted set kept by Sync, or computed from the users document when no
// redis is configured or the set has not been built yet.
type ServiceLeaderboard struct {
	container *do.Injector
	redisDB   redis.UniversalClient
	cache     caching.Cache
	ledger    *ServiceLedger
	config    *ServiceConfig
}

func NewServiceLeaderboard(container *do.Injector) (*ServiceLeaderboard, error) {
	// optional
	db, _ := do.InvokeNamed[redis.UniversalClient](container, "redis-db")

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	ledger, err := do.Invoke[*ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	config, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLeaderboard{container, db, cache, ledger, config}, nil
}

func (service *ServiceLeaderboard) GetLeaderboard(ctx context.Context, identity models.Identity, limit int) (*models.LeaderboardResponse, error) {
	if limit <= 0 {
		limit = service.config.GetIntConfig(CONFIG_LEADERBOARD_LIMIT, LEADERBOARD_DEFAULT_LIMIT)
	}

	callback := func() ([]*models.LeaderboardItem, error) {
		return service.board(ctx, limit)
	}

	board, err := caching.UseCache(ctx, service.cache, DBKeyLeaderboard(limit), CACHE_TTL_1_MIN, callback)
	if err != nil {
		return nil, err
	}

	response := &models.LeaderboardResponse{Leaderboard: make([]*models.LeaderboardItem, 0, len(board))}
	for _, item := range board {
		entry := *item
		if entry.UserID == identity.UserID {
			response.Me = &entry
		} else {
			entry.Name = censorName(entry.Name)
		}
		response.Leaderboard = append(response.Leaderboard, &entry)
	}

	if response.Me == nil && identity.UserID != "" {
		me, err := service.rankOf(ctx, identity.UserID)
		if err != nil {
			return nil, err
		}
		response.Me = me
	}

	participants, err := service.participants(ctx)
	if err != nil {
		return nil, err
	}
	response.Participants = participants

	return response, nil
}

// Sync rebuilds the redis sorted set from the users document.
func (service *ServiceLeaderboard) Sync(ctx context.Context) (int, error) {
	if service.redisDB == nil {
		return 0, nil
	}

	items, err := service.fromUsers(ctx, 0)
	if err != nil {
		return 0, err
	}

	if err := redis_store.ReplaceLeaderboard(ctx, service.redisDB, LEADERBOARD_POINTS, items); err != nil {
		return 0, err
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyLeaderboard(service.config.GetIntConfig(CONFIG_LEADERBOARD_LIMIT, LEADERBOARD_DEFAULT_LIMIT)))
	return len(items), nil
}

func (service *ServiceLeaderboard) board(ctx context.Context, limit int) ([]*models.LeaderboardItem, error) {
	if service.redisDB != nil {
		items, err := redis_store.GetLeaderboard(ctx, service.redisDB, LEADERBOARD_POINTS, limit)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return items, nil
		}
	}
	return service.fromUsers(ctx, limit)
}

func (service *ServiceLeaderboard) rankOf(ctx context.Context, userID string) (*models.LeaderboardItem, error) {
	if service.redisDB != nil {
		rank, err := redis_store.GetRankWithScore(ctx, service.redisDB, LEADERBOARD_POINTS, userID)
		if err == nil {
			return &models.LeaderboardItem{UserID: userID, Score: rank.Score, Rank: int(rank.Rank) + 1}, nil
		}
		if !errors.Is(err, redis.Nil) {
			return nil, err
		}
	}

	items, err := service.fromUsers(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.UserID == userID {
			return item, nil
		}
	}
	return nil, nil
}

func (service *ServiceLeaderboard) participants(ctx context.Context) (int64, error) {
	if service.redisDB != nil {
		count, err := redis_store.GetLeaderboardParticipantsCount(ctx, service.redisDB, LEADERBOARD_POINTS)
		if err != nil {
			return 0, err
		}
		if count > 0 {
			return count, nil
		}
	}

	users, err := service.ledger.Users(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

func (service *ServiceLeaderboard) fromUsers(ctx context.Context, limit int) ([]*models.LeaderboardItem, error) {
	users, err := service.ledger.Users(ctx)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}

	items := make([]*models.LeaderboardItem, 0, len(users))
	for i, user := range users {
		items = append(items, &models.LeaderboardItem{
			UserID: user.ID,
			Name:   user.Name,
			Score:  float64(user.Points),
			Rank:   i + 1,
		})
	}
	return items, nil
}

func censorName(name string) string {
	runes := []rune(name)
	if len(runes) < 3 {
		return name
	}
	return string(runes[:2]) + "*****" + string(runes[len(runes)-1])
}
