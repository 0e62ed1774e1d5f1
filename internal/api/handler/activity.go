package handler

import (
	"ecoverse/internal/models"
	"ecoverse/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type ClassifyPayload struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
}

type groupActivity struct {
	container *do.Injector
}

func (gr *groupActivity) Classify(c echo.Context) error {
	serviceActivity, err := do.Invoke[*services.ServiceActivity](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	identity, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload ClassifyPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	transaction, err := serviceActivity.RecordWasteClassification(ctx, identity, payload.Category, payload.Confidence)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, transaction, nil)
}

func (gr *groupActivity) CreateCarbonEntry(c echo.Context) error {
	serviceActivity, err := do.Invoke[*services.ServiceActivity](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	identity, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.CarbonActivity
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	result, err := serviceActivity.RecordCarbonActivity(ctx, identity, payload)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, result, nil)
}

func (gr *groupActivity) CarbonHistory(c echo.Context) error {
	serviceActivity, err := do.Invoke[*services.ServiceActivity](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	identity, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	history, err := serviceActivity.History(ctx, identity.UserID)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, history, nil)
}

func (gr *groupActivity) Advice(c echo.Context) error {
	serviceActivity, err := do.Invoke[*services.ServiceActivity](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	serviceAdvice, err := do.Invoke[*services.ServiceAdvice](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	identity, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	recent, err := serviceActivity.RecentCO2(ctx, identity.UserID, services.ADVICE_RECENT_WINDOW)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"advice": serviceAdvice.GetAdvice(ctx, recent),
	}, nil)
}

func (gr *groupActivity) Forecast(c echo.Context) error {
	serviceActivity, err := do.Invoke[*services.ServiceActivity](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	serviceAdvice, err := do.Invoke[*services.ServiceAdvice](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	identity, _, err := ResolveIdentity(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	recent, err := serviceActivity.RecentCO2(ctx, identity.UserID, services.ADVICE_RECENT_WINDOW)
	if err != nil {
		return httpx.RestAbort(c, nil, classify(err))
	}

	predictions := services.Forecast(recent, services.FORECAST_DEFAULT_DAYS)
	if predictions == nil {
		predictions = []float64{}
	}

	return httpx.RestAbort(c, models.Forecast{
		Predictions: predictions,
		Narrative:   serviceAdvice.ForecastText(ctx, recent),
	}, nil)
}
