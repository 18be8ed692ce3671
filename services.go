package innovate

import (
	"github.com/innovatetogether/go-innovate/core"
	"github.com/innovatetogether/go-innovate/identity"
)

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Profile = core.Profile
type PreferenceRecord = core.PreferenceRecord
type PreferenceStore = core.PreferenceStore
type PreferenceStatus = core.PreferenceStatus
type ResolutionResult = core.ResolutionResult
type ResolutionError = core.ResolutionError
type Session = core.Session
type SessionProvider = core.SessionProvider
type TokenSource = core.TokenSource
type Strategy = core.Strategy

var (
	WithLogger                 = core.WithLogger
	WithLoggerProvider         = core.WithLoggerProvider
	WithMetricsRecorder        = core.WithMetricsRecorder
	WithErrorFactory           = core.WithErrorFactory
	WithErrorMapper            = core.WithErrorMapper
	WithConfigProvider         = core.WithConfigProvider
	WithOptionsResolver        = core.WithOptionsResolver
	WithPreferenceStore        = core.WithPreferenceStore
	WithSessionProvider        = core.WithSessionProvider
	WithProfileResolver        = core.WithProfileResolver
	WithProfileResolverFactory = core.WithProfileResolverFactory
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewService requires a resolver option.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

// Setup builds a service with the HTTP resolver derived from the resolved
// config. An explicit WithProfileResolver still takes precedence.
func Setup(cfg Config, opts ...Option) (*Service, error) {
	all := make([]Option, 0, len(opts)+1)
	all = append(all, core.WithProfileResolverFactory(defaultResolverFactory(nil)))
	all = append(all, opts...)
	return core.NewService(cfg, all...)
}

// SetupWithHTTPClient is Setup with a caller supplied HTTP client for the
// profile API.
func SetupWithHTTPClient(cfg Config, client core.HTTPDoer, opts ...Option) (*Service, error) {
	all := make([]Option, 0, len(opts)+1)
	all = append(all, core.WithProfileResolverFactory(defaultResolverFactory(client)))
	all = append(all, opts...)
	return core.NewService(cfg, all...)
}

func defaultResolverFactory(client core.HTTPDoer) core.ProfileResolverFactory {
	return func(resolved core.Config) (core.ProfileResolver, error) {
		return identity.NewResolverFromConfig(resolved, client), nil
	}
}
