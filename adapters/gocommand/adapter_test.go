package gocommand

import (
	"context"
	"testing"

	"github.com/goliatone/go-command"
	innovate "github.com/innovatetogether/go-innovate"
	innovatecommand "github.com/innovatetogether/go-innovate/command"
	"github.com/innovatetogether/go-innovate/core"
	innovatequery "github.com/innovatetogether/go-innovate/query"
)

func TestBusMount_DispatchAndQuery(t *testing.T) {
	svc := &stubFacadeService{}
	facade, err := innovate.NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	bus := NewBus(command.NewRegistry())
	if err := bus.Mount(facade); err != nil {
		t.Fatalf("mount facade: %v", err)
	}
	defer bus.Close()
	if got := bus.Subscriptions(); got != 8 {
		t.Fatalf("expected 8 subscriptions, got %d", got)
	}

	ctx := context.Background()
	if err := Dispatch(ctx, innovatecommand.SetOverrideSubjectIDMessage{SubjectID: "abc123"}); err != nil {
		t.Fatalf("dispatch set subject: %v", err)
	}
	if svc.subject != "abc123" {
		t.Fatalf("expected subject to reach the service, got %q", svc.subject)
	}

	result, err := Query[innovatequery.ResolveProfileMessage, core.ResolutionResult](ctx, innovatequery.ResolveProfileMessage{})
	if err != nil {
		t.Fatalf("query resolve: %v", err)
	}
	if result.Strategy != core.StrategyFixedID {
		t.Fatalf("unexpected strategy %q", result.Strategy)
	}

	collector := command.NewResult[string]()
	if err := Dispatch(command.ContextWithResult(ctx, collector), innovatecommand.SetProfileByIDMessage{ProfileID: "abc123"}); err != nil {
		t.Fatalf("dispatch set profile by id: %v", err)
	}
	stored, ok := collector.Load()
	if !ok {
		t.Fatalf("expected set profile by id to store a result")
	}
	if stored != "http://localhost:5000/api/users/abc123" {
		t.Fatalf("expected stored url through the result collector, got %q", stored)
	}
}

func TestBusClose_ReleasesHandlers(t *testing.T) {
	facade, err := innovate.NewFacade(&stubFacadeService{})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	bus := NewBus(nil)
	if err := bus.Mount(facade); err != nil {
		t.Fatalf("mount facade: %v", err)
	}
	bus.Close()
	bus.Close()
	if bus.Subscriptions() != 0 {
		t.Fatalf("expected no subscriptions after close")
	}

	// A fresh bus can mount the same message types once the old one is closed.
	next := NewBus(nil)
	if err := next.Mount(facade); err != nil {
		t.Fatalf("remount facade: %v", err)
	}
	next.Close()
}

func TestBusMount_RequiresFacade(t *testing.T) {
	if err := NewBus(nil).Mount(nil); err == nil {
		t.Fatalf("expected error for nil facade")
	}
	var bus *Bus
	if err := bus.Mount(&innovate.Facade{}); err == nil {
		t.Fatalf("expected error for nil bus")
	}
}

type stubFacadeService struct {
	subject string
}

func (s *stubFacadeService) SetAbsoluteProfileURL(context.Context, string) error { return nil }
func (s *stubFacadeService) ClearAbsoluteProfileURL(context.Context) error       { return nil }
func (s *stubFacadeService) ClearOverrideSubjectID(context.Context) error        { return nil }

func (s *stubFacadeService) SetOverrideSubjectID(_ context.Context, subjectID string) error {
	s.subject = subjectID
	return nil
}

func (s *stubFacadeService) SetProfileByID(_ context.Context, profileID string) (string, error) {
	return core.DefaultConfig().API.UserURL(profileID), nil
}

func (s *stubFacadeService) ApplyDevDefaults(context.Context) (core.DevDefaultsResult, error) {
	return core.DevDefaultsResult{}, nil
}

func (s *stubFacadeService) Resolve(context.Context) core.ResolutionResult {
	strategy := core.StrategyNone
	if s.subject != "" {
		strategy = core.StrategyFixedID
	}
	return core.ResolutionResult{Strategy: strategy, Profile: &core.Profile{ID: s.subject}}
}

func (s *stubFacadeService) PreferenceStatus(context.Context) (core.PreferenceStatus, error) {
	return core.PreferenceStatus{OverrideSubjectID: s.subject, OverrideSubjectSet: s.subject != ""}, nil
}
