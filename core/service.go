package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

var ErrDevModeDisabled = errors.New("core: dev mode is disabled")

type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	preferenceStore PreferenceStore
	sessionProvider SessionProvider
	profileResolver ProfileResolver
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	PreferenceStore PreferenceStore
	SessionProvider SessionProvider
	ProfileResolver ProfileResolver
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("innovate", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("innovate"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.preferenceStore == nil {
		builder.preferenceStore = NewMemoryPreferenceStore()
	}
	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	if builder.profileResolver == nil && builder.resolverFactory != nil {
		resolver, factoryErr := builder.resolverFactory(finalConfig)
		if factoryErr != nil {
			return nil, mapBuildError(builder.errorMapper, factoryErr)
		}
		builder.profileResolver = resolver
	}
	if builder.profileResolver == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: profile resolver is not configured"))
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		preferenceStore: builder.preferenceStore,
		sessionProvider: builder.sessionProvider,
		profileResolver: builder.profileResolver,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		PreferenceStore: s.preferenceStore,
		SessionProvider: s.sessionProvider,
		ProfileResolver: s.profileResolver,
	}
}

// Resolve reads the preference record and session once, then hands both to
// the configured resolver. It never returns an error; failures are carried
// in the result.
func (s *Service) Resolve(ctx context.Context) ResolutionResult {
	startedAt := time.Now().UTC()
	if ctx == nil {
		ctx = context.Background()
	}
	if s == nil || s.profileResolver == nil {
		return ResolutionResult{
			Strategy: StrategyNone,
			Err:      NewResolutionError(ErrorKindNotWired, StrategyNone, nil),
		}
	}

	prefs, err := LoadPreferenceRecord(ctx, s.preferenceStore)
	if err != nil {
		result := ResolutionResult{
			Strategy: StrategyNone,
			Err:      NewResolutionError(ErrorKindPreferenceUnavailable, StrategyNone, err),
		}
		s.observeResolution(ctx, startedAt, PreferenceRecord{}, result)
		return result
	}

	var session *Session
	if s.sessionProvider != nil {
		if current, ok := s.sessionProvider.Current(); ok {
			session = &current
		}
	}

	result := s.profileResolver.Resolve(ctx, prefs, session)
	if result.Strategy == "" {
		result.Strategy = StrategyNone
	}
	if result.Err == nil && result.Profile == nil {
		result.Err = NewResolutionError(ErrorKindNotFound, result.Strategy, nil)
	}
	s.observeResolution(ctx, startedAt, prefs, result)
	return result
}

func (s *Service) observeResolution(ctx context.Context, startedAt time.Time, prefs PreferenceRecord, result ResolutionResult) {
	fields := map[string]any{
		"strategy": string(result.Strategy),
		"attempts": result.Attempts,
	}
	if result.Strategy == StrategyAbsoluteURL && prefs.AbsoluteProfileURL != nil {
		fields["profile_url"] = RedactURL(*prefs.AbsoluteProfileURL)
	}
	var err error
	if result.Err != nil {
		err = result.Err
		fields["error_kind"] = string(result.Err.Kind)
		if result.Err.StatusCode > 0 {
			fields["upstream_status"] = result.Err.StatusCode
		}
	}
	s.observeOperation(ctx, startedAt, "resolve_profile", err, fields)
}

func (s *Service) SetAbsoluteProfileURL(ctx context.Context, rawURL string) error {
	return s.setPreference(ctx, PreferenceKeyAbsoluteProfileURL, rawURL)
}

func (s *Service) ClearAbsoluteProfileURL(ctx context.Context) error {
	return s.clearPreference(ctx, PreferenceKeyAbsoluteProfileURL)
}

func (s *Service) SetOverrideSubjectID(ctx context.Context, subjectID string) error {
	return s.setPreference(ctx, PreferenceKeyOverrideSubjectID, subjectID)
}

func (s *Service) ClearOverrideSubjectID(ctx context.Context) error {
	return s.clearPreference(ctx, PreferenceKeyOverrideSubjectID)
}

// SetProfileByID points the absolute URL override at <base>/api/users/<id>
// and returns the URL that was stored.
func (s *Service) SetProfileByID(ctx context.Context, profileID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("core: service is nil")
	}
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return "", s.mapError(fmt.Errorf("core: profile id is required"))
	}
	target := s.config.API.UserURL(profileID)
	if err := s.setPreference(ctx, PreferenceKeyAbsoluteProfileURL, target); err != nil {
		return "", err
	}
	return target, nil
}

func (s *Service) PreferenceStatus(ctx context.Context) (PreferenceStatus, error) {
	if s == nil {
		return PreferenceStatus{}, fmt.Errorf("core: service is nil")
	}
	prefs, err := LoadPreferenceRecord(ctx, s.preferenceStore)
	if err != nil {
		return PreferenceStatus{}, s.mapError(err)
	}
	status := PreferenceStatus{
		AbsoluteURLSet:     prefs.HasAbsoluteProfileURL(),
		OverrideSubjectSet: prefs.HasOverrideSubjectID(),
		DevMode:            s.config.Dev.Enabled,
		APIBaseURL:         s.config.API.BaseURL,
	}
	if prefs.AbsoluteProfileURL != nil {
		status.AbsoluteProfileURL = *prefs.AbsoluteProfileURL
	}
	if prefs.OverrideSubjectID != nil {
		status.OverrideSubjectID = *prefs.OverrideSubjectID
	}
	if s.sessionProvider != nil {
		if current, ok := s.sessionProvider.Current(); ok {
			status.SessionPresent = true
			status.SessionSubjectID = current.SubjectID
		}
	}
	return status, nil
}

// ApplyDevDefaults fills unset overrides with the configured dev defaults.
// Values already present are never overwritten.
func (s *Service) ApplyDevDefaults(ctx context.Context) (DevDefaultsResult, error) {
	startedAt := time.Now().UTC()
	if s == nil {
		return DevDefaultsResult{}, fmt.Errorf("core: service is nil")
	}
	if !s.config.Dev.Enabled {
		return DevDefaultsResult{}, s.mapError(ErrDevModeDisabled)
	}

	defaults := []struct {
		key   string
		value string
	}{
		{key: PreferenceKeyAbsoluteProfileURL, value: devDefaultProfileURL(s.config)},
		{key: PreferenceKeyOverrideSubjectID, value: strings.TrimSpace(s.config.Dev.DefaultSubjectID)},
	}

	result := DevDefaultsResult{}
	var err error
	for _, entry := range defaults {
		if entry.value == "" {
			result.Skipped = append(result.Skipped, entry.key)
			continue
		}
		_, present, getErr := s.preferenceStore.Get(ctx, entry.key)
		if getErr != nil {
			err = getErr
			break
		}
		if present {
			result.Skipped = append(result.Skipped, entry.key)
			continue
		}
		if setErr := s.preferenceStore.Set(ctx, entry.key, entry.value); setErr != nil {
			err = setErr
			break
		}
		result.Applied = append(result.Applied, entry.key)
	}
	s.observeOperation(ctx, startedAt, "apply_dev_defaults", err, map[string]any{
		"applied": strings.Join(result.Applied, ","),
		"skipped": strings.Join(result.Skipped, ","),
	})
	if err != nil {
		return result, s.mapError(err)
	}
	return result, nil
}

func devDefaultProfileURL(cfg Config) string {
	profileID := strings.TrimSpace(cfg.Dev.DefaultProfileID)
	if profileID == "" {
		return ""
	}
	return cfg.API.UserURL(profileID)
}

func (s *Service) setPreference(ctx context.Context, key string, value string) error {
	startedAt := time.Now().UTC()
	if s == nil || s.preferenceStore == nil {
		return fmt.Errorf("core: preference store is not configured")
	}
	err := s.preferenceStore.Set(ctx, key, value)
	s.observeOperation(ctx, startedAt, "set_preference", err, map[string]any{
		"preference_key": key,
	})
	return s.mapError(err)
}

func (s *Service) clearPreference(ctx context.Context, key string) error {
	startedAt := time.Now().UTC()
	if s == nil || s.preferenceStore == nil {
		return fmt.Errorf("core: preference store is not configured")
	}
	err := s.preferenceStore.Clear(ctx, key)
	s.observeOperation(ctx, startedAt, "clear_preference", err, map[string]any{
		"preference_key": key,
	})
	return s.mapError(err)
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
