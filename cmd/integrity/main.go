// Copyright (C) 2025 VeriSkill GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/veriskill/integrity-engine/cmd/integrity/api"
	"github.com/veriskill/integrity-engine/controllers"
	"github.com/veriskill/integrity-engine/daemons"
	"github.com/veriskill/integrity-engine/database"
	"github.com/veriskill/integrity-engine/database/repositories"
	"github.com/veriskill/integrity-engine/router"
	"github.com/veriskill/integrity-engine/services"
	"github.com/veriskill/integrity-engine/shared"

	_ "github.com/lib/pq"
)

var release string // Will be filled at build time

func main() {
	shared.LoadConfig() // nolint: errcheck
	shared.InitLogger()

	if os.Getenv("ERROR_TRACKING_DSN") != "" {
		initSentry()

		defer func() {
			if err := recover(); err != nil {
				sentry.CurrentHub().Recover(err)
				// wait for events to be sent to the server
				sentry.Flush(time.Second * 5)
			}
		}()
	}

	pool, err := database.NewPgxConnPool(
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_DB"),
		os.Getenv("POSTGRES_PORT"),
	)
	if err != nil {
		slog.Error("could not connect to database", "err", err)
		panic(errors.New("failed to setup database connection"))
	}

	db, err := database.NewGormDB(pool)
	if err != nil {
		slog.Error("could not initialize orm", "err", err)
		panic(errors.New("failed to setup database connection"))
	}

	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		slog.Info("running database migrations...")
		if err := database.RunMigrations(db); err != nil {
			slog.Error("failed to run database migrations", "err", err)
			panic(errors.New("failed to run database migrations"))
		}
	}

	fx.New(
		fx.Supply(pool),
		fx.Provide(func(pool *pgxpool.Pool) (database.Broker, error) {
			return database.NewPostgreSQLBroker(pool)
		}),
		fx.Provide(func() *gorm.DB { return db }),
		fx.Provide(api.NewServer),
		repositories.Module,
		services.Module,
		controllers.Module,
		router.Module,
		daemons.Module,

		// invoke all routers so they register their routes
		fx.Invoke(func(attemptRouter router.AttemptRouter) {}),
		fx.Invoke(func(testRouter router.TestRouter) {}),
		fx.Invoke(func(reviewRouter router.ReviewRouter) {}),
		fx.Invoke(func(submissionRouter router.SubmissionRouter) {}),
		fx.Invoke(func(srv api.Server) {}),
	).Run()
}

func initSentry() {
	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "dev"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              os.Getenv("ERROR_TRACKING_DSN"),
		Environment:      environment,
		Release:          release,
		Debug:            environment == "dev",
		AttachStacktrace: true,
		SendDefaultPII:   false,
	})
	if err != nil {
		slog.Error("failed to init error tracking", "err", err)
	}
}
