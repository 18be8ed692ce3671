package innovate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	innovate "github.com/innovatetogether/go-innovate"
	"github.com/innovatetogether/go-innovate/core"
	innovatequery "github.com/innovatetogether/go-innovate/query"
	"github.com/innovatetogether/go-innovate/session"
)

type recordedRequest struct {
	path          string
	authorization string
}

type profileAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	server   *httptest.Server
}

func newProfileAPI(t *testing.T) *profileAPI {
	t.Helper()
	api := &profileAPI{}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.requests = append(api.requests, recordedRequest{path: r.URL.Path, authorization: r.Header.Get("Authorization")})
		api.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id":"abc123","name":"Ada","email":"ada@example.com"}`))
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *profileAPI) recorded() []recordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]recordedRequest(nil), a.requests...)
}

func TestSetup_ResolvesThroughConfiguredBaseURL(t *testing.T) {
	api := newProfileAPI(t)
	manager := session.NewManager()
	if err := manager.SignIn(core.Session{SubjectID: "uid-42", Tokens: session.NewStaticTokenSource("token-1")}); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	cfg := innovate.Config{API: core.APIConfig{BaseURL: api.server.URL}}
	svc, err := innovate.Setup(cfg, innovate.WithSessionProvider(manager))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if svc.Config().API.BaseURL != api.server.URL {
		t.Fatalf("expected runtime base url to win, got %q", svc.Config().API.BaseURL)
	}

	result := svc.Resolve(context.Background())
	if !result.OK() {
		t.Fatalf("expected success, got %#v", result.Err)
	}
	if result.Strategy != core.StrategySessionSubject {
		t.Fatalf("expected session strategy, got %q", result.Strategy)
	}
	requests := api.recorded()
	if len(requests) != 1 || requests[0].path != "/api/users/profile" || requests[0].authorization != "Bearer token-1" {
		t.Fatalf("unexpected requests: %#v", requests)
	}
}

func TestSetup_OverrideSubjectThroughFacade(t *testing.T) {
	api := newProfileAPI(t)
	svc, err := innovate.Setup(innovate.Config{API: core.APIConfig{BaseURL: api.server.URL}})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	facade, err := innovate.NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	ctx := context.Background()
	if err := svc.SetOverrideSubjectID(ctx, "abc123"); err != nil {
		t.Fatalf("set override: %v", err)
	}

	result, err := facade.Queries().ResolveProfile.Query(ctx, innovatequery.ResolveProfileMessage{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Strategy != core.StrategyFixedID || result.Profile == nil || result.Profile.DisplayName != "Ada" {
		t.Fatalf("unexpected result: %#v", result)
	}
	requests := api.recorded()
	if len(requests) != 1 || requests[0].path != "/api/users/abc123" || requests[0].authorization != "" {
		t.Fatalf("unexpected requests: %#v", requests)
	}
}

func TestSetup_NothingConfigured(t *testing.T) {
	api := newProfileAPI(t)
	svc, err := innovate.Setup(innovate.Config{API: core.APIConfig{BaseURL: api.server.URL}})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	result := svc.Resolve(context.Background())
	if result.Err == nil || result.Err.Kind != core.ErrorKindNoIdentifierConfigured {
		t.Fatalf("expected no identifier error, got %#v", result.Err)
	}
	if len(api.recorded()) != 0 {
		t.Fatalf("expected no requests")
	}
}

func TestNewService_RequiresResolver(t *testing.T) {
	if _, err := innovate.NewService(innovate.DefaultConfig()); err == nil {
		t.Fatalf("expected error without a resolver")
	}
}
