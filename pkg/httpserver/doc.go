// Package httpserver runs an http.Handler with context-driven graceful
// shutdown and provides liveness and readiness handlers.
//
// Run binds the listener before returning control to the serve loop, so
// bind failures surface synchronously as ErrStart. Cancelling the context
// passed to Run triggers http.Server.Shutdown bounded by the configured
// shutdown timeout:
//
//	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// ReadinessHandler evaluates named checks, typically the Healthcheck
// closures exposed by the pg, mongo and redis packages, with the request
// context so a hung dependency cannot outlive the probe.
package httpserver
