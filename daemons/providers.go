package daemons

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the daemon runner and ties it to the process lifecycle
var Module = fx.Options(
	fx.Provide(NewDaemonRunner),
	fx.Invoke(func(lc fx.Lifecycle, runner *DaemonRunner) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return runner.Start()
			},
			OnStop: func(ctx context.Context) error {
				runner.Stop()
				return nil
			},
		})
	}),
)
