// Package telemetry provides logging, metrics, and event publishing for
// Deckhand.
//
// # Logging
//
// Logger wraps zerolog with component-scoped child loggers and context
// embedding:
//
//	logger, _ := telemetry.NewLogger(cfg.Logging)
//	machineLog := logger.NewComponentLogger("provisioning")
//	machineLog.WithSessionID(id).Info("machine created")
//
// Loggers travel through context.Context so collaborator implementations
// can log with the caller's fields:
//
//	ctx = logger.WithContext(ctx)
//	telemetry.FromContext(ctx).Debug("polling provider")
//
// # Metrics
//
// Metrics owns a private Prometheus registry with counters, histograms,
// and gauges for provisioning lifecycle, collaborator calls, and
// deduplication output. StartMetricsServer exposes them over HTTP when
// enabled.
//
// # Events
//
// EventPublisher fans typed domain events out to subscribers. The session
// manager publishes machine transitions and audit events through it; the
// stores append the same events to the persistent audit trail.
package telemetry
