package testenv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// A Session owns the caches shared by a test run: compiled artifacts and
// bootstrapped environment snapshots. Create one per test session (typically
// a package-level variable in the test package) and request environments
// through it; every test then reuses the same compilation and bootstrap
// work. A session is safe for concurrent use.
type Session struct {
	Artifacts    *ArtifactCache
	Environments *EnvironmentCache

	logger   zerolog.Logger
	registry *prometheus.Registry
}

// SessionOption is a function applying a change to the session config.
type SessionOption func(*Session)

// WithLogger sets the logger environments of this session log verbose
// receipts to.
func WithLogger(logger zerolog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session with empty caches.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		logger:   defaultLogger(),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Artifacts = NewArtifactCache()
	s.Artifacts.metrics = newCacheMetrics(s.registry, "artifacts")
	s.Environments = NewEnvironmentCache(s.Artifacts, s.logger)
	s.Environments.metrics = newCacheMetrics(s.registry, "environments")
	return s
}

// Environment revives a test environment for the given package name to
// source location mapping, building and caching the underlying snapshot on
// first request.
func (s *Session) Environment(packages map[string]string) (*TestEnvironment, error) {
	return s.Environments.GetOrBuild(packages)
}

// Metrics exposes the session's cache counters for scraping or test
// assertions.
func (s *Session) Metrics() prometheus.Gatherer {
	return s.registry
}
