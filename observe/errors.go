package observe

import (
	"errors"

	"github.com/jonwraymond/catalogops/observe/exporters"
)

// Returned by Config.Validate.
var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample percentage must be between 0.0 and 1.0")
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: invalid log level")
)

var (
	// ErrNilObserver is returned by MiddlewareFromObserver(nil).
	ErrNilObserver = errors.New("observe: observer is nil")

	// ErrEndpointNotConfigured is returned when otlp export is selected
	// without an endpoint.
	ErrEndpointNotConfigured = exporters.ErrEndpointNotConfigured
)

const (
	MinSamplePct = 0.0
	MaxSamplePct = 1.0
)

// ValidLogLevels lists accepted Logging.Level values; empty means info.
var ValidLogLevels = []string{"debug", "info", "warn", "error", ""}

// RedactedFields are log field keys whose values are replaced before
// writing. Store paths and signing keys travel under these names.
var RedactedFields = []string{
	"password",
	"secret",
	"signing_key",
	"token",
	"authorization",
	"credential",
	"dsn",
	"store_path",
}
