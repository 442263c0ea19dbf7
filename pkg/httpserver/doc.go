// Package httpserver runs an http.Handler with graceful shutdown and
// lifecycle hooks.
//
// Run listens on the configured address and serves until its context is
// cancelled; the process normally derives that context from
// signal.NotifyContext. Shutdown waits for in-flight requests up to the
// shutdown timeout and then runs the stop hooks in order, which is where
// long-lived resources such as session registries are closed.
//
// HealthCheckHandler serves liveness and readiness probes as JSON.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(registry.Close),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run wraps listen errors with ErrStart and Shutdown wraps shutdown errors
// with ErrShutdown.
package httpserver
