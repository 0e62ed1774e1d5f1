package handler

import (
	"ecoverse/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupUser struct {
	container *do.Injector
}

func (gr *groupUser) Me(c echo.Context) error {
	serviceDashboard, err := do.Invoke[*services.ServiceDashboard](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	identity, name, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	summary, err := serviceDashboard.Summary(ctx, identity, name)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, summary, nil)
}

func (gr *groupUser) Transactions(c echo.Context) error {
	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	identity, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	transactions, err := serviceLedger.Transactions(ctx, identity.UserID)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, transactions, nil)
}
