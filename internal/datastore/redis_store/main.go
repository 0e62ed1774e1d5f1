package redis_store

import (
	"context"
	"fmt"
	"strings"

	"ecoverse/internal/models"

	"github.com/redis/go-redis/v9"
)

func dbKeyLeaderboard(name string) string {
	return fmt.Sprintf("leaderboard:%s", strings.ToLower(name))
}

func dbKeyLeaderboardNames(name string) string {
	return fmt.Sprintf("leaderboard:%s:names", strings.ToLower(name))
}

// ReplaceLeaderboard swaps the whole board in one MULTI/EXEC so readers never see it half built.
func ReplaceLeaderboard(ctx context.Context, cmd redis.UniversalClient, name string, items []*models.LeaderboardItem) error {
	_, err := cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, dbKeyLeaderboard(name), dbKeyLeaderboardNames(name))
		for _, item := range items {
			pipe.ZAdd(ctx, dbKeyLeaderboard(name), redis.Z{
				Score:  item.Score,
				Member: item.UserID,
			})
			if item.Name != "" {
				pipe.HSet(ctx, dbKeyLeaderboardNames(name), item.UserID, item.Name)
			}
		}
		return nil
	})
	return err
}

func GetLeaderboard(ctx context.Context, cmd redis.Cmdable, name string, num int) ([]*models.LeaderboardItem, error) {
	// num always greater than 0
	items, err := cmd.ZRevRangeWithScores(ctx, dbKeyLeaderboard(name), 0, int64(num-1)).Result()
	if err != nil {
		return nil, err
	}

	names, err := cmd.HGetAll(ctx, dbKeyLeaderboardNames(name)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*models.LeaderboardItem, 0, len(items))
	for i, item := range items {
		id, _ := item.Member.(string)
		results = append(results, &models.LeaderboardItem{
			UserID: id,
			Name:   names[id],
			Score:  item.Score,
			Rank:   i + 1,
		})
	}

	return results, nil
}

func GetLeaderboardParticipantsCount(ctx context.Context, cmd redis.Cmdable, name string) (int64, error) {
	return cmd.ZCard(ctx, dbKeyLeaderboard(name)).Result()
}

func GetRankWithScore(ctx context.Context, cmd redis.Cmdable, name string, userID string) (redis.RankScore, error) {
	rank, err := cmd.ZRevRankWithScore(ctx, dbKeyLeaderboard(name), userID).Result()
	if err != nil {
		return redis.RankScore{}, err
	}

	return rank, nil
}
