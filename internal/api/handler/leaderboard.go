package handler

import (
	"strconv"

	"ecoverse/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

const maxLeaderboardLimit = 100

type groupLeaderboard struct {
	container *do.Injector
}

func (gr *groupLeaderboard) GetLeaderboard(c echo.Context) error {
	serviceLeaderboard, err := do.Invoke[*services.ServiceLeaderboard](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	identity, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return httpx.RestAbort(c, nil, errorx.Wrap(services.ErrInvalidInput, errorx.Invalid))
		}
		if limit > maxLeaderboardLimit {
			limit = maxLeaderboardLimit
		}
	}

	leaderboard, err := serviceLeaderboard.GetLeaderboard(ctx, identity, limit)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, leaderboard, nil)
}
