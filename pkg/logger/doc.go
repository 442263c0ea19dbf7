// Package logger builds *slog.Logger instances with environment-aware defaults
// and context-driven attributes.
//
//	log := logger.New(logger.WithEnvironment(environment.Production, "botfleet"))
//	ctx = logger.WithTenant(ctx, "acme")
//	log.InfoContext(ctx, "session ready") // carries tenant=acme
//
// The handler is wrapped by LogHandlerDecorator, which runs every registered
// ContextExtractor on each call. The tenant extractor is always installed.
package logger
