package core

import (
	"context"
	"fmt"
	"sync"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any)                  {}
func (stubLogger) Debug(string, ...any)                  {}
func (stubLogger) Info(string, ...any)                   {}
func (stubLogger) Warn(string, ...any)                   {}
func (stubLogger) Error(string, ...any)                  {}
func (stubLogger) Fatal(string, ...any)                  {}
func (l stubLogger) WithContext(context.Context) Logger { return l }

type stubLoggerProvider struct {
	logger Logger
}

func (p stubLoggerProvider) GetLogger(string) Logger {
	if p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type mapRawLoader struct {
	values map[string]any
	err    error
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.values, nil
}

type resolveCall struct {
	prefs   PreferenceRecord
	session *Session
}

type stubResolver struct {
	mu    sync.Mutex
	calls []resolveCall
	fn    func(prefs PreferenceRecord, session *Session) ResolutionResult
}

func (r *stubResolver) Resolve(_ context.Context, prefs PreferenceRecord, session *Session) ResolutionResult {
	r.mu.Lock()
	r.calls = append(r.calls, resolveCall{prefs: prefs, session: session})
	r.mu.Unlock()
	if r.fn == nil {
		return ResolutionResult{Strategy: StrategyAbsoluteURL, Profile: &Profile{ID: "abc123"}, Attempts: 1}
	}
	return r.fn(prefs, session)
}

func (r *stubResolver) recorded() []resolveCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]resolveCall(nil), r.calls...)
}

type stubTokenSource struct{}

func (stubTokenSource) BearerToken(context.Context, bool) (string, error) { return "token", nil }

type stubSessionProvider struct {
	session Session
	present bool
}

func (p stubSessionProvider) Current() (Session, bool) { return p.session, p.present }

func (p stubSessionProvider) Subscribe(fn func(Session, bool)) func() {
	fn(p.session, p.present)
	return func() {}
}

type failingPreferenceStore struct {
	err error
}

func (s failingPreferenceStore) Get(context.Context, string) (string, bool, error) {
	return "", false, s.err
}

func (s failingPreferenceStore) Set(context.Context, string, string) error { return s.err }

func (s failingPreferenceStore) Clear(context.Context, string) error { return s.err }

func newTestService(t *testing.T, resolver ProfileResolver, opts ...Option) *Service {
	t.Helper()
	all := append([]Option{WithProfileResolver(resolver)}, opts...)
	svc, err := NewService(Config{}, all...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

var errStoreDown = fmt.Errorf("sqlite: database is locked")
