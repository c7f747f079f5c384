// Package observe provides logging, metrics and tracing for catalog
// operations.
//
// Logging is structured and backed by zap. Metrics and traces go through the
// OpenTelemetry SDK with exporters chosen by name (see observe/exporters).
// WrapService decorates any catalog.Service so every operation gets a span,
// counters, a duration histogram and a log line.
package observe
