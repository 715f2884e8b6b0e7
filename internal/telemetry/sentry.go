// Package telemetry provides opt-in, privacy-filtered error reporting to Sentry.
package telemetry

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/ebird-recommend/internal/conf"
	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/logger"
)

// sentryInitialized is set once the SDK accepted the client options
var sentryInitialized atomic.Bool

// allowedExtra lists the only extra fields that survive filtering
var allowedExtra = map[string]bool{
	"error_type": true,
	"component":  true,
}

// InitSentry initializes the Sentry SDK when the user opted in and routes
// enhanced errors to it. It is a no-op when Sentry is disabled.
func InitSentry(settings *conf.Settings, release string) error {
	return initSentry(settings, release, nil)
}

func initSentry(settings *conf.Settings, release string, transport sentry.Transport) error {
	log := logger.Global().Module("telemetry")

	if !settings.Sentry.Enabled {
		log.Debug("sentry telemetry is disabled (opt-in required)")
		return nil
	}
	if settings.Sentry.DSN == "" {
		return errors.Newf("sentry is enabled but no DSN is configured").
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      settings.Sentry.Environment,
		ServerName:       "",
		Release:          "ebird-recommend@" + release,
		Transport:        transport,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	configureScope(release)
	sentryInitialized.Store(true)

	errors.SetTelemetryReporter(&filteringReporter{next: errors.NewSentryReporter(true)})

	log.Info("sentry telemetry initialized",
		logger.String("environment", settings.Sentry.Environment),
		logger.String("release", release))
	return nil
}

// applyPrivacyFilters strips host, user and request data from an event
// and redacts credentials from its message.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Request = nil

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
	}

	for k := range event.Extra {
		if !allowedExtra[k] {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Message = logger.RedactSensitiveData(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = logger.RedactSensitiveData(event.Exception[i].Value)
	}

	return event
}

func configureScope(release string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetContext("application", map[string]any{
			"name":       "ebird-recommend",
			"version":    release,
			"go_version": runtime.Version(),
		})
	})
}

// filteringReporter drops errors caused by callers rather than by the program.
type filteringReporter struct {
	next errors.TelemetryReporter
}

// ignoredCategories are user input problems and aborted requests
var ignoredCategories = map[errors.ErrorCategory]bool{
	errors.CategoryValidation:   true,
	errors.CategoryNotFound:     true,
	errors.CategoryCancellation: true,
}

func (r *filteringReporter) IsEnabled() bool {
	return r.next.IsEnabled()
}

func (r *filteringReporter) ReportError(ee *errors.EnhancedError) {
	if ignoredCategories[ee.Category] {
		return
	}
	r.next.ReportError(ee)
}

// DefaultFlushTimeout bounds how long shutdown waits for queued events.
const DefaultFlushTimeout = 2 * time.Second

// Flush waits up to timeout for buffered events to be sent.
func Flush(timeout time.Duration) {
	if !sentryInitialized.Load() {
		return
	}
	sentry.Flush(timeout)
}
