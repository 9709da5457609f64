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

// Package daemons runs the asynchronous analyzers: the plagiarism batch
// worker, the behavioral anomaly recomputation and the stale-analysis
// reaper. Each daemon combines a periodic tick with a broker notification,
// so work starts promptly but never depends on a notification arriving.
package daemons

import (
	"context"
	"log/slog"
	"time"

	"github.com/veriskill/integrity-engine/database"
	"github.com/veriskill/integrity-engine/monitoring"
	"github.com/veriskill/integrity-engine/shared"
)

const (
	plagiarismTick = 30 * time.Second
	anomalyTick    = time.Minute
	reaperTick     = 2 * time.Minute
)

type DaemonRunner struct {
	broker            database.Broker
	anomalyService    shared.AnomalyService
	plagiarismService shared.PlagiarismService

	cancel context.CancelFunc
	done   chan struct{}
}

func NewDaemonRunner(
	broker database.Broker,
	anomalyService shared.AnomalyService,
	plagiarismService shared.PlagiarismService,
) *DaemonRunner {
	return &DaemonRunner{
		broker:            broker,
		anomalyService:    anomalyService,
		plagiarismService: plagiarismService,
	}
}

func (runner *DaemonRunner) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	runner.cancel = cancel
	runner.done = make(chan struct{}, 3)

	submissionNotify, err := runner.broker.Subscribe(database.SubmissionFinalized)
	if err != nil {
		cancel()
		return err
	}
	metricsNotify, err := runner.broker.Subscribe(database.MetricsReported)
	if err != nil {
		cancel()
		return err
	}

	go runner.loop(ctx, "plagiarism", plagiarismTick, submissionNotify, runner.plagiarismService.ProcessQueue)
	go runner.loop(ctx, "anomaly", anomalyTick, metricsNotify, runner.anomalyService.RecomputeDueAttempts)
	go runner.loop(ctx, "reaper", reaperTick, nil, func(ctx context.Context) error {
		_, err := runner.plagiarismService.RequeueStale(ctx)
		return err
	})

	slog.Info("background daemons started")
	return nil
}

func (runner *DaemonRunner) Stop() {
	if runner.cancel == nil {
		return
	}
	runner.cancel()
	for i := 0; i < cap(runner.done); i++ {
		<-runner.done
	}
	slog.Info("background daemons stopped")
}

// loop runs work on every tick and additionally whenever a notification
// arrives. A failing pass is alerted and retried on the next trigger.
func (runner *DaemonRunner) loop(ctx context.Context, name string, tick time.Duration, notify <-chan map[string]any, work func(context.Context) error) {
	defer func() { runner.done <- struct{}{} }()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case _, ok := <-notify:
			if !ok {
				notify = nil
				continue
			}
		}

		start := time.Now()
		if err := work(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			monitoring.Alert("daemon pass failed: "+name, err)
			continue
		}
		slog.Debug("daemon pass finished", "daemon", name, "duration", time.Since(start))
	}
}
