package handler

import (
	"context"
	"errors"
	"strings"

	"ecoverse/internal/models"
	"ecoverse/internal/pkg/limiter"
	"ecoverse/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
)

type ctxKey string

var ctxKeyAuthUser ctxKey = "AUTH_USER"

type session struct {
	identity models.Identity
	name     string
}

func Authn(verifier interface {
	Validate(token string) (*models.Identity, string, error)
},
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.Split(header, "Bearer")
			if len(parts) != 2 {
				return next(c)
			}

			token := strings.TrimSpace(parts[1])
			if len(token) == 0 {
				return next(c)
			}

			identity, name, err := verifier.Validate(token)
			if err != nil {
				// although it's a client error, we don't want to detailed information
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("invalid access token"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthUser, &session{*identity, name})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireAuthn terminates requests that carry no valid session.
func RequireAuthn(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, _, err := ResolveIdentity(c.Request().Context()); err != nil {
			return httpx.RestAbort(c, nil, err)
		}
		return next(c)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, _, err := ResolveIdentity(c.Request().Context())
		if err != nil {
			return httpx.RestAbort(c, nil, err)
		}
		if !identity.IsAdmin() {
			return httpx.RestAbort(c, nil, errorx.Wrap(services.ErrForbidden, errorx.Authn))
		}
		return next(c)
	}
}

// ResolveIdentity returns the session identity and display name set by Authn.
func ResolveIdentity(ctx context.Context) (models.Identity, string, error) {
	s, ok := ctx.Value(ctxKeyAuthUser).(*session)
	if !ok {
		return models.Identity{}, "", errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}
	return s.identity, s.name, nil
}

// classify maps service errors onto the response kinds.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrInsufficientPoints), errors.Is(err, services.ErrInvalidTransition):
		return errorx.Wrap(err, errorx.Validation)
	case errors.Is(err, services.ErrInvalidInput):
		return errorx.Wrap(err, errorx.Invalid)
	case errors.Is(err, services.ErrRecordNotFound):
		return errorx.Wrap(err, errorx.NotExist)
	case errors.Is(err, services.ErrForbidden):
		return errorx.Wrap(err, errorx.Authn)
	case errors.Is(err, limiter.ErrRateLimited):
		return errorx.Wrap(err, errorx.RateLimiting)
	default:
		return errorx.Wrap(err, errorx.Service)
	}
}
