package handler

import (
	"strconv"

	"ecoverse/internal/models"
	"ecoverse/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAdmin struct {
	container *do.Injector
}

func (gr *groupAdmin) ListPending(c echo.Context) error {
	serviceRedemption, err := do.Invoke[*services.ServiceRedemption](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	admin, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	pending, err := serviceRedemption.ListPending(ctx, admin)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, pending, nil)
}

func (gr *groupAdmin) Approve(c echo.Context) error {
	serviceRedemption, err := do.Invoke[*services.ServiceRedemption](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	admin, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	transaction, err := serviceRedemption.ApproveRedemption(ctx, admin, c.Param("id"))
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, transaction, nil)
}

func (gr *groupAdmin) Reject(c echo.Context) error {
	serviceRedemption, err := do.Invoke[*services.ServiceRedemption](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	admin, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	transaction, err := serviceRedemption.RejectRedemption(ctx, admin, c.Param("id"))
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, transaction, nil)
}

func (gr *groupAdmin) Metrics(c echo.Context) error {
	serviceDashboard, err := do.Invoke[*services.ServiceDashboard](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	admin, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	metrics, err := serviceDashboard.Metrics(ctx, admin)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, metrics, nil)
}

func (gr *groupAdmin) AuditLog(c echo.Context) error {
	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	transactions, err := serviceLedger.AuditLog(c.Request().Context(), limit)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, transactions, nil)
}

func (gr *groupAdmin) UpsertReward(c echo.Context) error {
	serviceCatalog, err := do.Invoke[*services.ServiceCatalog](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	admin, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.Reward
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	reward, err := serviceCatalog.Upsert(ctx, admin, payload)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, reward, nil)
}

func (gr *groupAdmin) DeleteReward(c echo.Context) error {
	serviceCatalog, err := do.Invoke[*services.ServiceCatalog](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	admin, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	if err := serviceCatalog.Delete(ctx, admin, c.Param("id")); err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, map[string]interface{}{"deleted": c.Param("id")}, nil)
}
