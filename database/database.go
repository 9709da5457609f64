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

package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veriskill/integrity-engine/monitoring"
)

// alertingLogger forwards database errors to the error tracking in addition
// to the default gorm logger.
type alertingLogger struct {
	defaultLogger logger.Interface
}

func (l *alertingLogger) LogMode(level logger.LogLevel) logger.Interface {
	var newDefault logger.Interface
	if l.defaultLogger != nil {
		newDefault = l.defaultLogger.LogMode(level)
	}
	return &alertingLogger{defaultLogger: newDefault}
}

func (l *alertingLogger) Info(ctx context.Context, msg string, data ...any) {
	l.defaultLogger.Info(ctx, msg, data...)
}

func (l *alertingLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.defaultLogger.Warn(ctx, msg, data...)
}

func (l *alertingLogger) Error(ctx context.Context, msg string, data ...any) {
	l.alert(msg, data...)
	l.defaultLogger.Error(ctx, msg, data...)
}

func (l *alertingLogger) alert(msg string, data ...any) {
	if len(data) > 0 {
		if err, ok := data[0].(error); ok {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return
			}
			monitoring.Alert(msg, err)
			return
		}
		monitoring.Alert(msg, fmt.Errorf("%v", data[0]))
		return
	}
	monitoring.Alert(msg, nil)
}

func (l *alertingLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.alert("database error", err)
	}
	l.defaultLogger.Trace(ctx, begin, fc, err)
}

func getDSN(host, user, password, dbname, port string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)
}

func NewPgxConnPool(host, user, password, dbname, port string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(getDSN(host, user, password, dbname, port))
	if err != nil {
		return nil, fmt.Errorf("could not parse pgx pool config: %w", err)
	}
	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnIdleTime = 5 * time.Minute
	config.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("could not create pgx pool: %w", err)
	}

	slog.Info("database connection pool configured", "maxOpenConns", config.MaxConns)
	return pool, nil
}

// NewGormDB creates a GORM instance on top of an existing pgx pool, so the
// ORM and the LISTEN/NOTIFY broker share one pool.
func NewGormDB(pool *pgxpool.Pool) (*gorm.DB, error) {
	db := stdlib.OpenDBFromPool(pool)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		Logger: &alertingLogger{defaultLogger: logger.Default},
		// unique violations must surface as gorm.ErrDuplicatedKey, the dedup
		// tolerance on the ingest path matches on it
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return gormDB, nil
}

// IsDuplicateKeyError recognizes a unique violation in all the shapes it can
// reach a caller: translated by gorm, raw from pgx, or stringly wrapped.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}
