package events

import (
	"context"

	appLog "hearth/internal/log"
	"hearth/internal/luma"
	"hearth/internal/metrics"
	"hearth/internal/model"
)

const (
	// DefaultLimit is how many cards the landing page shows.
	DefaultLimit = 4

	// FailureNotice is shown above the fallback cards when the fetch failed.
	FailureNotice = "Failed to load events"
)

// Source lists upcoming provider events. *luma.Client implements it.
type Source interface {
	ListUpcoming(ctx context.Context, creds luma.Credentials, limit int) ([]model.RemoteEvent, error)
}

// Result is the outcome of one page load.
type Result struct {
	Events []model.DisplayEvent
	// Live is true when Events came from the provider.
	Live bool
	// Notice is non-empty when the fetch failed and the fallback is shown.
	Notice string
	// Err is the underlying failure, kept for logging only.
	Err error
}

// Service applies the single fallback policy around the provider call.
type Service struct {
	source Source
	creds  luma.Credentials
	limit  int
}

// NewService wires a Source with the credentials resolved at startup.
// A non-positive limit selects DefaultLimit.
func NewService(source Source, creds luma.Credentials, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{
		source: source,
		creds:  creds,
		limit:  limit,
	}
}

// Limit returns the number of events requested per load.
func (s *Service) Limit() int {
	return s.limit
}

// Credentials returns the credentials passed to every call.
func (s *Service) Credentials() luma.Credentials {
	return s.creds
}

// Remote performs one provider call and returns the raw records.
func (s *Service) Remote(ctx context.Context) ([]model.RemoteEvent, error) {
	return s.source.ListUpcoming(ctx, s.creds, s.limit)
}

// Load fetches and normalizes upcoming events. It never fails: an error or
// an empty result both yield the fallback list, and only an error sets a
// notice.
func (s *Service) Load(ctx context.Context) Result {
	remote, err := s.Remote(ctx)
	if err != nil {
		if luma.IsConfigurationError(err) {
			appLog.Info("events: provider not configured, using fallback", "reason", err.Error())
		} else {
			appLog.Error("events: fetch failed, using fallback", err, "calendar_id", s.creds.CalendarID)
		}
		metrics.EventsServed.WithLabelValues(metrics.SourceFallbackFailed).Inc()
		return Result{
			Events: Fallback(),
			Notice: FailureNotice,
			Err:    err,
		}
	}

	if len(remote) == 0 {
		appLog.Info("events: no upcoming events, using fallback", "calendar_id", s.creds.CalendarID)
		metrics.EventsServed.WithLabelValues(metrics.SourceFallback).Inc()
		return Result{Events: Fallback()}
	}

	metrics.EventsServed.WithLabelValues(metrics.SourceLive).Inc()
	return Result{
		Events: Normalize(remote),
		Live:   true,
	}
}
