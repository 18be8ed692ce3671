package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig   Config
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
	resolverFactory ProfileResolverFactory
}

// ProfileResolverFactory builds a resolver from the fully resolved config.
type ProfileResolverFactory func(cfg Config) (ProfileResolver, error)

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithPreferenceStore(store PreferenceStore) Option {
	return func(b *serviceBuilder) {
		b.preferenceStore = store
	}
}

func WithSessionProvider(provider SessionProvider) Option {
	return func(b *serviceBuilder) {
		b.sessionProvider = provider
	}
}

func WithProfileResolver(resolver ProfileResolver) Option {
	return func(b *serviceBuilder) {
		b.profileResolver = resolver
	}
}

// WithProfileResolverFactory is used only when no resolver was set with
// WithProfileResolver.
func WithProfileResolverFactory(factory ProfileResolverFactory) Option {
	return func(b *serviceBuilder) {
		b.resolverFactory = factory
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("innovate", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return serviceErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// NewStaticRawConfigLoader serves a fixed raw config map.
func NewStaticRawConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

const envPrefix = "INNOVATE_"

// EnvRawConfigLoader reads INNOVATE_* variables into the raw config shape.
type EnvRawConfigLoader struct {
	Lookup func(key string) (string, bool)
}

func NewEnvRawConfigLoader() *EnvRawConfigLoader {
	return &EnvRawConfigLoader{Lookup: os.LookupEnv}
}

func (l *EnvRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := os.LookupEnv
	if l != nil && l.Lookup != nil {
		lookup = l.Lookup
	}
	raw := map[string]any{}
	api := map[string]any{}
	resolution := map[string]any{}
	dev := map[string]any{}

	read := func(name string) (string, bool) {
		value, ok := lookup(envPrefix + name)
		if !ok {
			return "", false
		}
		value = strings.TrimSpace(value)
		return value, value != ""
	}

	if value, ok := read("SERVICE_NAME"); ok {
		raw["service_name"] = value
	}
	if value, ok := read("API_BASE_URL"); ok {
		api["base_url"] = value
	}
	if value, ok := read("REQUEST_TIMEOUT"); ok {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("core: invalid %sREQUEST_TIMEOUT %q: %w", envPrefix, value, err)
		}
		api["request_timeout"] = timeout
	}
	if value, ok := read("FALLTHROUGH_ON_FAILURE"); ok {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("core: invalid %sFALLTHROUGH_ON_FAILURE %q: %w", envPrefix, value, err)
		}
		resolution["fallthrough_on_failure"] = enabled
	}
	if value, ok := read("DEV_MODE"); ok {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("core: invalid %sDEV_MODE %q: %w", envPrefix, value, err)
		}
		dev["enabled"] = enabled
	}
	if value, ok := read("DEV_DEFAULT_PROFILE_ID"); ok {
		dev["default_profile_id"] = value
	}
	if value, ok := read("DEV_DEFAULT_SUBJECT_ID"); ok {
		dev["default_subject_id"] = value
	}

	if len(api) > 0 {
		raw["api"] = api
	}
	if len(resolution) > 0 {
		raw["resolution"] = resolution
	}
	if len(dev) > 0 {
		raw["dev"] = dev
	}
	return raw, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver layers defaults < loaded config < runtime overrides.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// configToLayerMap only emits non-zero values unless includeZero is set, so
// an unset runtime field never masks the loaded config. Boolean flags can
// therefore only be switched on by upper layers.
func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	api := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.API.BaseURL) != "" {
		api["base_url"] = cfg.API.BaseURL
	}
	if includeZero || cfg.API.RequestTimeout > 0 {
		api["request_timeout"] = cfg.API.RequestTimeout
	}
	if len(api) > 0 {
		layer["api"] = api
	}

	if includeZero || cfg.Resolution.FallthroughOnFailure {
		layer["resolution"] = map[string]any{
			"fallthrough_on_failure": cfg.Resolution.FallthroughOnFailure,
		}
	}

	dev := map[string]any{}
	if includeZero || cfg.Dev.Enabled {
		dev["enabled"] = cfg.Dev.Enabled
	}
	if includeZero || strings.TrimSpace(cfg.Dev.DefaultProfileID) != "" {
		dev["default_profile_id"] = cfg.Dev.DefaultProfileID
	}
	if includeZero || strings.TrimSpace(cfg.Dev.DefaultSubjectID) != "" {
		dev["default_subject_id"] = cfg.Dev.DefaultSubjectID
	}
	if len(dev) > 0 {
		layer["dev"] = dev
	}
	return layer
}
