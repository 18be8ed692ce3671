package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/innovatetogether/go-innovate/core"
	"github.com/innovatetogether/go-innovate/transport"
)

const (
	defaultRequestTimeout   = 10 * time.Second
	maxProfileResponseBytes = 1 << 20 // 1 MiB
)

type Config struct {
	// Transport overrides the REST adapter built from HTTPClient.
	Transport  core.TransportAdapter
	HTTPClient core.HTTPDoer
	API        core.APIConfig
	// FallthroughOnFailure tries the next configured strategy when an
	// attempted one fails. Off by default.
	FallthroughOnFailure bool
}

// Resolver picks one identity source by precedence and fetches the profile
// for it. It holds no per-resolution state and is safe for concurrent use.
type Resolver struct {
	transport   core.TransportAdapter
	api         core.APIConfig
	timeout     time.Duration
	fallThrough bool
}

func NewResolver(cfg Config) *Resolver {
	adapter := cfg.Transport
	if adapter == nil {
		client := cfg.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: defaultRequestTimeout}
		}
		rest := transport.NewRESTAdapter(client)
		rest.MaxResponseBodyBytes = maxProfileResponseBytes
		adapter = rest
	}
	timeout := cfg.API.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Resolver{
		transport:   adapter,
		api:         cfg.API,
		timeout:     timeout,
		fallThrough: cfg.FallthroughOnFailure,
	}
}

// NewResolverFromConfig builds a resolver from the service configuration.
func NewResolverFromConfig(cfg core.Config, client core.HTTPDoer) *Resolver {
	return NewResolver(Config{
		HTTPClient:           client,
		API:                  cfg.API,
		FallthroughOnFailure: cfg.Resolution.FallthroughOnFailure,
	})
}

func DefaultResolver() *Resolver {
	return NewResolverFromConfig(core.DefaultConfig(), nil)
}

type attempt struct {
	strategy core.Strategy
	url      string
	tokens   core.TokenSource
	bearer   bool
}

// plan evaluates precedence before any request is issued. Only the first
// entry is used unless fallthrough is enabled. A blank override is stored as
// given but is not a usable input.
func (r *Resolver) plan(prefs core.PreferenceRecord, session *core.Session) []attempt {
	var attempts []attempt
	if target, ok := usableOverride(prefs.AbsoluteProfileURL); ok {
		attempts = append(attempts, attempt{
			strategy: core.StrategyAbsoluteURL,
			url:      target,
		})
	}
	if subjectID, ok := usableOverride(prefs.OverrideSubjectID); ok {
		attempts = append(attempts, attempt{
			strategy: core.StrategyFixedID,
			url:      r.api.UserURL(subjectID),
		})
	}
	if session != nil {
		attempts = append(attempts, attempt{
			strategy: core.StrategySessionSubject,
			url:      r.api.SessionProfileURL(),
			tokens:   session.Tokens,
			bearer:   true,
		})
	}
	return attempts
}

func usableOverride(value *string) (string, bool) {
	if value == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(*value)
	return trimmed, trimmed != ""
}

func (r *Resolver) Resolve(ctx context.Context, prefs core.PreferenceRecord, session *core.Session) core.ResolutionResult {
	if ctx == nil {
		ctx = context.Background()
	}
	if r == nil || r.transport == nil {
		return core.ResolutionResult{
			Strategy: core.StrategyNone,
			Err: core.NewResolutionError(
				core.ErrorKindNetwork,
				core.StrategyNone,
				fmt.Errorf("identity: resolver transport is not configured"),
			),
		}
	}

	attempts := r.plan(prefs, session)
	if len(attempts) == 0 {
		return core.ResolutionResult{
			Strategy: core.StrategyNone,
			Err:      core.NewResolutionError(core.ErrorKindNoIdentifierConfigured, core.StrategyNone, nil),
		}
	}
	if !r.fallThrough {
		attempts = attempts[:1]
	}

	var result core.ResolutionResult
	requests := 0
	for _, next := range attempts {
		result = r.execute(ctx, next)
		requests += result.Attempts
		if result.Err == nil || ctx.Err() != nil {
			break
		}
	}
	result.Attempts = requests
	return result
}

func (r *Resolver) execute(ctx context.Context, a attempt) core.ResolutionResult {
	result := core.ResolutionResult{Strategy: a.strategy}
	if strings.TrimSpace(a.url) == "" {
		result.Err = core.NewResolutionError(
			core.ErrorKindNetwork,
			a.strategy,
			fmt.Errorf("identity: profile url is empty"),
		)
		return result
	}

	machine := newTokenRetry(a.tokens, a.bearer)
	for {
		headers, err := machine.headers(ctx)
		if err != nil {
			result.Err = core.NewResolutionError(core.ErrorKindAuth, a.strategy, err)
			return result
		}
		res, err := r.transport.Do(ctx, core.TransportRequest{
			Method:               http.MethodGet,
			URL:                  a.url,
			Headers:              headers,
			Timeout:              r.timeout,
			MaxResponseBodyBytes: maxProfileResponseBytes,
		})
		result.Attempts++
		if err != nil {
			result.Err = core.NewResolutionError(core.ErrorKindNetwork, a.strategy, err)
			return result
		}
		if res.StatusCode == http.StatusUnauthorized && machine.advance() {
			continue
		}
		profile, resErr := classifyResponse(a.strategy, res)
		result.Profile = profile
		result.Err = resErr
		return result
	}
}

func classifyResponse(strategy core.Strategy, res core.TransportResponse) (*core.Profile, *core.ResolutionError) {
	switch {
	case res.StatusCode == http.StatusUnauthorized, res.StatusCode == http.StatusForbidden:
		return nil, core.NewResolutionError(
			core.ErrorKindAuth,
			strategy,
			fmt.Errorf("identity: profile endpoint returned status %d", res.StatusCode),
		).WithStatus(res.StatusCode)
	case res.StatusCode == http.StatusNotFound:
		return nil, core.NewResolutionError(core.ErrorKindNotFound, strategy, nil).WithStatus(res.StatusCode)
	case res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices:
		return nil, core.NewResolutionError(
			core.ErrorKindNetwork,
			strategy,
			fmt.Errorf("identity: profile endpoint returned status %d", res.StatusCode),
		).WithStatus(res.StatusCode)
	}
	profile, err := DecodeProfile(res.Body)
	if err != nil {
		return nil, core.NewResolutionError(core.ErrorKindNetwork, strategy, err).WithStatus(res.StatusCode)
	}
	if profile == nil {
		return nil, core.NewResolutionError(core.ErrorKindNotFound, strategy, nil).WithStatus(res.StatusCode)
	}
	return profile, nil
}

var _ core.ProfileResolver = (*Resolver)(nil)
