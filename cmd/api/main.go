package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ecoverse/internal/api/handler"
	"ecoverse/internal/container"
	"ecoverse/internal/models"
	"ecoverse/internal/pkg/logging"
	"ecoverse/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	vs, err := env.EnvsRequired(
		"JWT_SECRET",
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	injector := container.New(vs)
	log := logging.Component("api")

	app := &cli.App{
		Name: "api",
		Commands: []*cli.Command{
			commandServer(injector),
			commandToken(injector),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("api exited")
	}
}

func commandServer(injector *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "start the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "0.0.0.0:8080",
				Usage: "serve address",
			},
		},
		Action: func(c *cli.Context) error {
			log := logging.Component("api")
			vs := do.MustInvokeNamed[map[string]string](injector, "envs")
			router, err := handler.New(&handler.Config{
				Container: injector,
				Mode:      vs["API_MODE"],
				Origins:   strings.Split(vs["API_ORIGINS"], ","),
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              c.String("addr"),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errWg, errCtx := errgroup.WithContext(ctx)

			errWg.Go(func() error {
				log.Info().Str("addr", srv.Addr).Str("mode", vs["API_MODE"]).Msg("listen and serve")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})

			errWg.Go(func() error {
				<-errCtx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := errWg.Wait(); err != nil {
				return err
			}
			return injector.Shutdown()
		},
	}
}

// commandToken issues a bearer token for local use and operator scripts.
func commandToken(injector *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue an access token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "user id",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "display name",
			},
			&cli.StringFlag{
				Name:  "role",
				Value: string(models.RoleUser),
				Usage: "user or admin",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Value: 24 * time.Hour,
			},
		},
		Action: func(c *cli.Context) error {
			authentication, err := do.Invoke[*services.Authentication](injector)
			if err != nil {
				return err
			}

			role := models.Role(c.String("role"))
			if role != models.RoleUser && role != models.RoleAdmin {
				return fmt.Errorf("unknown role %q", role)
			}

			token, err := authentication.CreateToken(models.Identity{
				UserID: c.String("user"),
				Role:   role,
			}, c.String("name"), c.Duration("ttl"))
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}
}
