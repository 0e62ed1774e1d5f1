package handler

import (
	"net/http"

	"ecoverse/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🌱")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.
		routesAPIv1.GET("", Hello)

		rw := groupReward{cfg.Container}
		routesAPIv1.GET("/rewards", rw.List)

		u := groupUser{cfg.Container}
		routesAPIv1.GET("/user/me", u.Me, RequireAuthn)
		routesAPIv1.GET("/user/transactions", u.Transactions, RequireAuthn)

		a := groupActivity{cfg.Container}
		routesAPIv1.POST("/waste/classify", a.Classify, RequireAuthn)
		routesAPIv1.POST("/carbon/entries", a.CreateCarbonEntry, RequireAuthn)
		routesAPIv1.GET("/carbon/history", a.CarbonHistory, RequireAuthn)
		routesAPIv1.GET("/carbon/advice", a.Advice, RequireAuthn)
		routesAPIv1.GET("/carbon/forecast", a.Forecast, RequireAuthn)

		routesAPIv1.POST("/rewards/:id/redeem", rw.Redeem, RequireAuthn)

		l := groupLeaderboard{cfg.Container}
		routesAPIv1.GET("/leaderboard", l.GetLeaderboard, RequireAuthn)

		routesAPIv1Admin := routesAPIv1.Group("/admin", RequireAdmin)
		{
			ad := groupAdmin{cfg.Container}
			routesAPIv1Admin.GET("/redemptions/pending", ad.ListPending)
			routesAPIv1Admin.POST("/redemptions/:id/approve", ad.Approve)
			routesAPIv1Admin.POST("/redemptions/:id/reject", ad.Reject)
			routesAPIv1Admin.GET("/metrics", ad.Metrics)
			routesAPIv1Admin.GET("/transactions", ad.AuditLog)
			routesAPIv1Admin.PUT("/rewards", ad.UpsertReward)
			routesAPIv1Admin.DELETE("/rewards/:id", ad.DeleteReward)
		}
	}

	return r, nil
}

func Hello(c echo.Context) error {
	return httpx.RestAbort(c, "hello world", nil)
}
